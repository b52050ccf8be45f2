package service

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
)

// PasswordService hashes and verifies user passwords with bcrypt and
// enforces the complexity rules before hashing.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: bcrypt.DefaultCost}
}

// Hash rejects weak passwords and returns the bcrypt hash of the rest.
func (s *PasswordService) Hash(raw string) (entity.HashedPassword, error) {
	if !validPassword(raw) {
		return entity.HashedPassword{}, domain.Validationf("password does not meet requirements")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(raw), s.cost)
	if err != nil {
		return entity.HashedPassword{}, err
	}
	return entity.NewHashedPassword(string(b))
}

// Verify reports whether raw matches the stored hash. bcrypt's comparison is
// constant-time; a mismatch is a false return, never an error.
func (s *PasswordService) Verify(raw string, hashed entity.HashedPassword) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed.String()), []byte(raw)) == nil
}

// validPassword requires at least 8 characters with an upper-case letter, a
// lower-case letter and a digit.
func validPassword(raw string) bool {
	if len(raw) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
