package application

import (
	"context"

	"github.com/hexcontexts/user-service/internal/domain/entity"
)

// EventBus publishes domain events drained from an aggregate after its write
// has been persisted. Implementations wrap transport failures in
// domain.ErrPublish; the caller never rolls back the committed write.
type EventBus interface {
	Publish(ctx context.Context, events []entity.Event) error
}
