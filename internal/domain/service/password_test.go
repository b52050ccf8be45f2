package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexcontexts/user-service/internal/domain"
)

func TestHashRejectsWeakPasswords(t *testing.T) {
	svc := NewPasswordService()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "too short", raw: "Ab1"},
		{name: "no upper", raw: "password123"},
		{name: "no lower", raw: "PASSWORD123"},
		{name: "no digit", raw: "PasswordOnly"},
		{name: "empty", raw: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Hash(tt.raw)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	svc := NewPasswordService()

	hashed, err := svc.Hash("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hashed.String())

	assert.True(t, svc.Verify("Sup3rSecret", hashed))
	assert.False(t, svc.Verify("WrongPass1", hashed))
	assert.False(t, svc.Verify("", hashed))
}
