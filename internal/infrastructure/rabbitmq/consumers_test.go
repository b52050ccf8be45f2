package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexcontexts/user-service/internal/application"
	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
	"github.com/hexcontexts/user-service/internal/domain/service"
)

type memRepo struct {
	users   map[string]*entity.User
	saveErr error
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*entity.User{}} }

func (r *memRepo) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.users[u.ID()] = u
	return u, nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domain.NotFoundf("user %s not found", id)
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email().String() == email {
			return u, nil
		}
	}
	return nil, domain.NotFoundf("user with email %s not found", email)
}

func (r *memRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Username().String() == username {
			return u, nil
		}
	}
	return nil, domain.NotFoundf("user with username %s not found", username)
}

func (r *memRepo) List(_ context.Context, _, _ int) ([]*entity.User, error) {
	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	return all, nil
}

func (r *memRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *memRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type nullBus struct{}

func (nullBus) Publish(context.Context, []entity.Event) error { return nil }

type memMailer struct {
	sent []string
	err  error
}

func (m *memMailer) SendWelcome(_ context.Context, to, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type memIndexer struct {
	indexed []application.UserDTO
}

func (m *memIndexer) IndexUser(_ context.Context, dto application.UserDTO) error {
	m.indexed = append(m.indexed, dto)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func commandBody(t *testing.T, commandType string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(commandEnvelope{CommandType: commandType, Data: raw})
	require.NoError(t, err)
	return body
}

func TestUserCommandConsumerDispatch(t *testing.T) {
	ctx := context.Background()
	cmd := application.CreateUserCommand{
		Email:     "alice@example.com",
		Username:  "alice_42",
		FirstName: "Alice",
		LastName:  "Smith",
		Password:  "Sup3rSecret",
	}

	t.Run("creates user from a valid command", func(t *testing.T) {
		repo := newMemRepo()
		create := application.NewCreateUserHandler(repo, service.NewPasswordService(), nullBus{}, quietLogger())
		consumer := NewUserCommandConsumer(create, quietLogger())

		err := consumer.Dispatch(ctx, commandBody(t, application.CommandCreateUser, cmd))
		require.NoError(t, err)
		assert.Len(t, repo.users, 1)
	})

	t.Run("malformed json is terminal", func(t *testing.T) {
		create := application.NewCreateUserHandler(newMemRepo(), service.NewPasswordService(), nullBus{}, quietLogger())
		consumer := NewUserCommandConsumer(create, quietLogger())

		assert.NoError(t, consumer.Dispatch(ctx, []byte("{not json")))
	})

	t.Run("unknown command type is terminal", func(t *testing.T) {
		create := application.NewCreateUserHandler(newMemRepo(), service.NewPasswordService(), nullBus{}, quietLogger())
		consumer := NewUserCommandConsumer(create, quietLogger())

		assert.NoError(t, consumer.Dispatch(ctx, commandBody(t, "drop_user", cmd)))
	})

	t.Run("conflict is terminal", func(t *testing.T) {
		repo := newMemRepo()
		create := application.NewCreateUserHandler(repo, service.NewPasswordService(), nullBus{}, quietLogger())
		consumer := NewUserCommandConsumer(create, quietLogger())

		body := commandBody(t, application.CommandCreateUser, cmd)
		require.NoError(t, consumer.Dispatch(ctx, body))
		assert.NoError(t, consumer.Dispatch(ctx, body), "duplicate must be acked, not requeued")
		assert.Len(t, repo.users, 1)
	})

	t.Run("infrastructure error propagates for requeue", func(t *testing.T) {
		repo := newMemRepo()
		repo.saveErr = errors.New("db down")
		create := application.NewCreateUserHandler(repo, service.NewPasswordService(), nullBus{}, quietLogger())
		consumer := NewUserCommandConsumer(create, quietLogger())

		assert.Error(t, consumer.Dispatch(ctx, commandBody(t, application.CommandCreateUser, cmd)))
	})
}

func eventBody(t *testing.T, eventType, userID string) []byte {
	t.Helper()
	body, err := json.Marshal(eventMessage{
		EventID:   "e-1",
		EventType: eventType,
		Data:      map[string]any{"user_id": userID},
	})
	require.NoError(t, err)
	return body
}

func TestUserEventConsumerDispatch(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, repo *memRepo) *entity.User {
		t.Helper()
		hashed, err := entity.NewHashedPassword("$2a$10$hash")
		require.NoError(t, err)
		u, err := entity.NewUser("alice@example.com", "alice_42", "Alice", "Smith", hashed)
		require.NoError(t, err)
		repo.users[u.ID()] = u
		return u
	}

	t.Run("user_created sends welcome mail and projects", func(t *testing.T) {
		repo := newMemRepo()
		u := seed(t, repo)
		mailer := &memMailer{}
		indexer := &memIndexer{}
		consumer := NewUserEventConsumer(application.NewUserQueryHandler(repo), mailer, indexer, quietLogger())

		require.NoError(t, consumer.Dispatch(ctx, eventBody(t, entity.EventUserCreated, u.ID())))
		assert.Equal(t, []string{"alice@example.com"}, mailer.sent)
		require.Len(t, indexer.indexed, 1)
		assert.Equal(t, u.ID(), indexer.indexed[0].ID)
	})

	t.Run("user_updated projects without mail", func(t *testing.T) {
		repo := newMemRepo()
		u := seed(t, repo)
		mailer := &memMailer{}
		indexer := &memIndexer{}
		consumer := NewUserEventConsumer(application.NewUserQueryHandler(repo), mailer, indexer, quietLogger())

		require.NoError(t, consumer.Dispatch(ctx, eventBody(t, entity.EventUserUpdated, u.ID())))
		assert.Empty(t, mailer.sent)
		assert.Len(t, indexer.indexed, 1)
	})

	t.Run("stale event for a vanished user is terminal", func(t *testing.T) {
		consumer := NewUserEventConsumer(application.NewUserQueryHandler(newMemRepo()), &memMailer{}, &memIndexer{}, quietLogger())
		assert.NoError(t, consumer.Dispatch(ctx, eventBody(t, entity.EventUserCreated, "gone")))
	})

	t.Run("mailer failure does not fail the message", func(t *testing.T) {
		repo := newMemRepo()
		u := seed(t, repo)
		mailer := &memMailer{err: errors.New("smtp down")}
		indexer := &memIndexer{}
		consumer := NewUserEventConsumer(application.NewUserQueryHandler(repo), mailer, indexer, quietLogger())

		require.NoError(t, consumer.Dispatch(ctx, eventBody(t, entity.EventUserCreated, u.ID())))
		assert.Len(t, indexer.indexed, 1, "projection still runs after mail failure")
	})

	t.Run("missing user_id is terminal", func(t *testing.T) {
		consumer := NewUserEventConsumer(application.NewUserQueryHandler(newMemRepo()), &memMailer{}, &memIndexer{}, quietLogger())
		body, err := json.Marshal(eventMessage{EventID: "e-1", EventType: entity.EventUserCreated, Data: map[string]any{}})
		require.NoError(t, err)
		assert.NoError(t, consumer.Dispatch(ctx, body))
	})
}
