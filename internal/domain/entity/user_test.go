package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexcontexts/user-service/internal/domain"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	hashed, err := NewHashedPassword("$2a$10$hash")
	require.NoError(t, err)
	u, err := NewUser("alice@example.com", "alice_42", "Alice", "Smith", hashed)
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	u := newTestUser(t)

	assert.NotEmpty(t, u.ID())
	assert.Equal(t, "alice@example.com", u.Email().String())
	assert.Equal(t, "alice_42", u.Username().String())
	assert.Equal(t, "Alice Smith", u.FullName().String())
	assert.True(t, u.IsActive())
	assert.Equal(t, u.CreatedAt(), u.UpdatedAt())

	events := u.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventUserCreated, events[0].Type)
	assert.Equal(t, u.ID(), events[0].Data["user_id"])
	assert.Equal(t, "alice@example.com", events[0].Data["email"])
	assert.NotContains(t, events[0].Data, "password")
}

func TestNewUserInvalidInput(t *testing.T) {
	hashed, _ := NewHashedPassword("$2a$10$hash")

	_, err := NewUser("not-an-email", "alice_42", "Alice", "Smith", hashed)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewUser("alice@example.com", "a!", "Alice", "Smith", hashed)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewUser("alice@example.com", "alice_42", "", "Smith", hashed)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPullEventsDrains(t *testing.T) {
	u := newTestUser(t)
	require.Len(t, u.PullEvents(), 1)
	assert.Empty(t, u.PullEvents())
}

func TestUpdateProfile(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("changes name and records event", func(t *testing.T) {
		u := newTestUser(t)
		u.PullEvents()

		require.NoError(t, u.UpdateProfile(str("Alicia"), nil))
		assert.Equal(t, "Alicia Smith", u.FullName().String())

		events := u.PullEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventUserUpdated, events[0].Type)
	})

	t.Run("nil fields keep current values", func(t *testing.T) {
		u := newTestUser(t)
		u.PullEvents()

		require.NoError(t, u.UpdateProfile(nil, nil))
		assert.Equal(t, "Alice Smith", u.FullName().String())
		assert.Empty(t, u.PullEvents())
	})

	t.Run("unchanged value records no event", func(t *testing.T) {
		u := newTestUser(t)
		u.PullEvents()

		require.NoError(t, u.UpdateProfile(str("Alice"), str("Smith")))
		assert.Empty(t, u.PullEvents())
	})

	t.Run("invalid name rejected without state change", func(t *testing.T) {
		u := newTestUser(t)
		u.PullEvents()

		err := u.UpdateProfile(str("  "), nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "Alice Smith", u.FullName().String())
		assert.Empty(t, u.PullEvents())
	})
}

func TestDeactivateIsIdempotent(t *testing.T) {
	u := newTestUser(t)
	u.PullEvents()

	u.Deactivate()
	assert.False(t, u.IsActive())
	require.Len(t, u.PullEvents(), 1)

	u.Deactivate()
	assert.False(t, u.IsActive())
	assert.Empty(t, u.PullEvents())
}

func TestActivateIsIdempotent(t *testing.T) {
	u := newTestUser(t)
	u.PullEvents()

	u.Activate()
	assert.Empty(t, u.PullEvents(), "activating an active user records nothing")

	u.Deactivate()
	u.PullEvents()
	u.Activate()
	assert.True(t, u.IsActive())
	require.Len(t, u.PullEvents(), 1)
}

func TestReconstituteRecordsNoEvents(t *testing.T) {
	src := newTestUser(t)
	u := Reconstitute(src.ID(), src.Email(), src.Username(), src.FullName(), src.HashedPassword(), false, src.CreatedAt(), src.UpdatedAt())
	assert.Equal(t, src.ID(), u.ID())
	assert.False(t, u.IsActive())
	assert.Empty(t, u.PullEvents())
}
