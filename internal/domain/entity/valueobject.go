package entity

import (
	"regexp"
	"strings"

	"github.com/hexcontexts/user-service/internal/domain"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// Email is a validated, lower-cased email address.
type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	if !emailPattern.MatchString(raw) {
		return Email{}, domain.Validationf("invalid email format: %q", raw)
	}
	return Email{value: strings.ToLower(raw)}, nil
}

func (e Email) String() string { return e.value }

// Username is 3-50 characters of [a-zA-Z0-9_].
type Username struct {
	value string
}

func NewUsername(raw string) (Username, error) {
	if len(raw) < 3 || len(raw) > 50 {
		return Username{}, domain.Validationf("invalid username: %q", raw)
	}
	if !usernamePattern.MatchString(raw) {
		return Username{}, domain.Validationf("invalid username: %q", raw)
	}
	return Username{value: raw}, nil
}

func (u Username) String() string { return u.value }

// FullName holds a trimmed, non-empty first and last name.
type FullName struct {
	first string
	last  string
}

func NewFullName(first, last string) (FullName, error) {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		return FullName{}, domain.Validationf("first name cannot be empty")
	}
	if last == "" {
		return FullName{}, domain.Validationf("last name cannot be empty")
	}
	return FullName{first: first, last: last}, nil
}

func (n FullName) First() string  { return n.first }
func (n FullName) Last() string   { return n.last }
func (n FullName) String() string { return n.first + " " + n.last }

// HashedPassword is an opaque, non-empty password hash. It is never
// serialized outward; DTOs and events carry no password material.
type HashedPassword struct {
	value string
}

func NewHashedPassword(hashed string) (HashedPassword, error) {
	if hashed == "" {
		return HashedPassword{}, domain.Validationf("hashed password cannot be empty")
	}
	return HashedPassword{value: hashed}, nil
}

func (p HashedPassword) String() string { return p.value }
