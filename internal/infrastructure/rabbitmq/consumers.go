package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/hexcontexts/user-service/internal/application"
	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
	"github.com/hexcontexts/user-service/pkg/metrics"
)

// commandEnvelope is the wire form of a queued command.
type commandEnvelope struct {
	CommandType string          `json:"command_type"`
	Data        json.RawMessage `json:"data"`
}

// UserCommandConsumer re-applies user commands received over the
// user_commands queue through the same handlers the HTTP adapter uses.
type UserCommandConsumer struct {
	create *application.CreateUserHandler
	logger *logrus.Logger
}

func NewUserCommandConsumer(create *application.CreateUserHandler, logger *logrus.Logger) *UserCommandConsumer {
	return &UserCommandConsumer{create: create, logger: logger}
}

// Start consumes user_commands until ctx is cancelled.
func (c *UserCommandConsumer) Start(ctx context.Context, broker *Broker) error {
	return broker.Consume(ctx, QueueUserCommands, 1, c.Dispatch)
}

// Dispatch decodes one message and routes it over the closed command set.
// Malformed payloads, unknown types and domain rejections are terminal: they
// are counted and acked rather than requeued, since redelivery cannot fix
// them. Only infrastructure errors propagate for a nack/requeue.
func (c *UserCommandConsumer) Dispatch(ctx context.Context, body []byte) error {
	var env commandEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.WithError(err).Warn("bad command message")
		metrics.RecordMessageConsumed(QueueUserCommands, "malformed")
		return nil
	}

	switch env.CommandType {
	case application.CommandCreateUser:
		var cmd application.CreateUserCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.logger.WithError(err).Warn("bad create_user payload")
			metrics.RecordMessageConsumed(QueueUserCommands, "malformed")
			return nil
		}
		dto, err := c.create.Handle(ctx, cmd)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConflict) {
				c.logger.WithError(err).WithField("email", cmd.Email).Warn("create_user command rejected")
				metrics.RecordMessageConsumed(QueueUserCommands, "rejected")
				return nil
			}
			metrics.RecordMessageConsumed(QueueUserCommands, "error")
			return err
		}
		c.logger.WithField("user_id", dto.ID).Info("user created from command queue")
		metrics.RecordMessageConsumed(QueueUserCommands, "success")
		return nil
	default:
		c.logger.WithField("command_type", env.CommandType).Warn("unknown command type")
		metrics.RecordMessageConsumed(QueueUserCommands, "unknown_command")
		return nil
	}
}

// WelcomeMailer sends the post-signup notification.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// UserIndexer projects users into the search read model.
type UserIndexer interface {
	IndexUser(ctx context.Context, dto application.UserDTO) error
}

// UserEventConsumer applies user_events side effects: the welcome email on
// user_created and the search read-model projection on every change.
type UserEventConsumer struct {
	queries *application.UserQueryHandler
	mailer  WelcomeMailer
	indexer UserIndexer
	logger  *logrus.Logger
}

func NewUserEventConsumer(queries *application.UserQueryHandler, mailer WelcomeMailer, indexer UserIndexer, logger *logrus.Logger) *UserEventConsumer {
	return &UserEventConsumer{queries: queries, mailer: mailer, indexer: indexer, logger: logger}
}

// Start consumes user_events until ctx is cancelled.
func (c *UserEventConsumer) Start(ctx context.Context, broker *Broker) error {
	return broker.Consume(ctx, QueueUserEvents, 16, c.Dispatch)
}

func (c *UserEventConsumer) Dispatch(ctx context.Context, body []byte) error {
	var msg eventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		c.logger.WithError(err).Warn("bad event message")
		metrics.RecordMessageConsumed(QueueUserEvents, "malformed")
		return nil
	}
	userID, _ := msg.Data["user_id"].(string)
	if userID == "" {
		c.logger.WithField("event_type", msg.EventType).Warn("event without user_id")
		metrics.RecordMessageConsumed(QueueUserEvents, "malformed")
		return nil
	}

	dto, err := c.queries.GetByID(ctx, application.GetUserByIDQuery{UserID: userID})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The row disappeared between publish and consume.
			metrics.RecordMessageConsumed(QueueUserEvents, "stale")
			return nil
		}
		metrics.RecordMessageConsumed(QueueUserEvents, "error")
		return err
	}

	if msg.EventType == entity.EventUserCreated && c.mailer != nil {
		if err := c.mailer.SendWelcome(ctx, dto.Email, dto.FullName); err != nil {
			c.logger.WithError(err).WithField("user_id", dto.ID).Warn("welcome email failed")
			metrics.RecordApplicationError("welcome_email", "user_event_consumer")
		}
	}
	if c.indexer != nil {
		if err := c.indexer.IndexUser(ctx, dto); err != nil {
			c.logger.WithError(err).WithField("user_id", dto.ID).Warn("search projection failed")
			metrics.RecordApplicationError("search_index", "user_event_consumer")
		}
	}
	metrics.RecordMessageConsumed(QueueUserEvents, "success")
	return nil
}
