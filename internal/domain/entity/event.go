package entity

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the User aggregate.
const (
	EventUserCreated = "user_created"
	EventUserUpdated = "user_updated"
)

// Event is a fact recorded by an aggregate, published after the write that
// produced it has been persisted.
type Event struct {
	ID         string         `json:"event_id"`
	Type       string         `json:"event_type"`
	Data       map[string]any `json:"data"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func newEvent(eventType string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func NewUserCreated(userID, email, username string) Event {
	return newEvent(EventUserCreated, map[string]any{
		"user_id":  userID,
		"email":    email,
		"username": username,
	})
}

func NewUserUpdated(userID string, changes map[string]any) Event {
	return newEvent(EventUserUpdated, map[string]any{
		"user_id": userID,
		"changes": changes,
	})
}
