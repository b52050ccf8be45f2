package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the aggregate root for the users context. All state is reached
// through accessors; mutations go through the business methods below, which
// record domain events for the event bus to publish after persistence.
type User struct {
	id             string
	email          Email
	username       Username
	fullName       FullName
	hashedPassword HashedPassword
	active         bool
	createdAt      time.Time
	updatedAt      time.Time

	events []Event
}

// NewUser validates all inputs through value objects, activates the account
// and records a single user_created event. No event is recorded when any
// input is invalid.
func NewUser(email, username, firstName, lastName string, hashed HashedPassword) (*User, error) {
	em, err := NewEmail(email)
	if err != nil {
		return nil, err
	}
	un, err := NewUsername(username)
	if err != nil {
		return nil, err
	}
	fn, err := NewFullName(firstName, lastName)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &User{
		id:             uuid.NewString(),
		email:          em,
		username:       un,
		fullName:       fn,
		hashedPassword: hashed,
		active:         true,
		createdAt:      now,
		updatedAt:      now,
	}
	u.record(NewUserCreated(u.id, em.String(), un.String()))
	return u, nil
}

// Reconstitute rebuilds a User from persistence without recording events.
func Reconstitute(id string, email Email, username Username, fullName FullName, hashed HashedPassword, active bool, createdAt, updatedAt time.Time) *User {
	return &User{
		id:             id,
		email:          email,
		username:       username,
		fullName:       fullName,
		hashedPassword: hashed,
		active:         active,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (u *User) ID() string                     { return u.id }
func (u *User) Email() Email                   { return u.email }
func (u *User) Username() Username             { return u.username }
func (u *User) FullName() FullName             { return u.fullName }
func (u *User) HashedPassword() HashedPassword { return u.hashedPassword }
func (u *User) IsActive() bool                 { return u.active }
func (u *User) CreatedAt() time.Time           { return u.createdAt }
func (u *User) UpdatedAt() time.Time           { return u.updatedAt }

// UpdateProfile replaces the provided name fields, keeping the current value
// for any nil pointer. Recording a user_updated event only when something
// actually changed keeps re-sent updates from producing duplicate events.
func (u *User) UpdateProfile(firstName, lastName *string) error {
	if firstName == nil && lastName == nil {
		return nil
	}
	first := u.fullName.First()
	last := u.fullName.Last()
	if firstName != nil {
		first = *firstName
	}
	if lastName != nil {
		last = *lastName
	}
	fn, err := NewFullName(first, last)
	if err != nil {
		return err
	}
	if fn == u.fullName {
		return nil
	}
	u.fullName = fn
	u.touch()
	u.record(NewUserUpdated(u.id, map[string]any{"full_name": fn.String()}))
	return nil
}

// Deactivate soft-deletes the user. A no-op on an already inactive user:
// no state change and no event.
func (u *User) Deactivate() {
	if !u.active {
		return
	}
	u.active = false
	u.touch()
	u.record(NewUserUpdated(u.id, map[string]any{"is_active": false}))
}

// Activate re-enables the user. Idempotent like Deactivate.
func (u *User) Activate() {
	if u.active {
		return
	}
	u.active = true
	u.touch()
	u.record(NewUserUpdated(u.id, map[string]any{"is_active": true}))
}

// PullEvents returns the pending events and clears the list, so a second
// call returns nothing. Handlers call it once, after a successful save.
func (u *User) PullEvents() []Event {
	events := u.events
	u.events = nil
	return events
}

func (u *User) record(e Event) {
	u.events = append(u.events, e)
}

func (u *User) touch() {
	u.updatedAt = time.Now().UTC()
}
