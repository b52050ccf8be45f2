package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
	"github.com/hexcontexts/user-service/internal/domain/repository"
	"github.com/hexcontexts/user-service/internal/domain/service"
	"github.com/hexcontexts/user-service/pkg/metrics"
)

// publishEvents drains the aggregate's pending events and hands them to the
// bus. A publish failure is logged and counted but never rolls back the
// already-committed write; without an outbox the events are simply lost.
func publishEvents(ctx context.Context, bus EventBus, u *entity.User, logger *logrus.Logger) {
	events := u.PullEvents()
	if len(events) == 0 {
		return
	}
	if err := bus.Publish(ctx, events); err != nil {
		metrics.RecordApplicationError("publish", "event_bus")
		logger.WithError(err).WithField("user_id", u.ID()).
			Error("publishing domain events failed; events lost")
	}
}

func commandStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// CreateUserHandler creates a user: uniqueness checks, password hashing,
// aggregate construction, persistence, event publication.
type CreateUserHandler struct {
	repo      repository.UserRepository
	passwords *service.PasswordService
	bus       EventBus
	logger    *logrus.Logger
}

func NewCreateUserHandler(repo repository.UserRepository, passwords *service.PasswordService, bus EventBus, logger *logrus.Logger) *CreateUserHandler {
	return &CreateUserHandler{repo: repo, passwords: passwords, bus: bus, logger: logger}
}

func (h *CreateUserHandler) Handle(ctx context.Context, cmd CreateUserCommand) (dto UserDTO, err error) {
	defer func() {
		metrics.RecordCommand(CommandCreateUser, commandStatus(err))
		metrics.RecordUserOperation("create", commandStatus(err))
	}()

	if exists, eerr := h.repo.ExistsByEmail(ctx, cmd.Email); eerr != nil {
		return UserDTO{}, eerr
	} else if exists {
		return UserDTO{}, domain.Conflictf("user with email %s already exists", cmd.Email)
	}
	if exists, eerr := h.repo.ExistsByUsername(ctx, cmd.Username); eerr != nil {
		return UserDTO{}, eerr
	} else if exists {
		return UserDTO{}, domain.Conflictf("user with username %s already exists", cmd.Username)
	}

	hashed, err := h.passwords.Hash(cmd.Password)
	if err != nil {
		return UserDTO{}, err
	}
	user, err := entity.NewUser(cmd.Email, cmd.Username, cmd.FirstName, cmd.LastName, hashed)
	if err != nil {
		return UserDTO{}, err
	}

	saved, err := h.repo.Save(ctx, user)
	if err != nil {
		return UserDTO{}, err
	}
	publishEvents(ctx, h.bus, user, h.logger)
	return toDTO(saved), nil
}

// UpdateUserHandler applies profile changes to an existing user.
type UpdateUserHandler struct {
	repo   repository.UserRepository
	bus    EventBus
	logger *logrus.Logger
}

func NewUpdateUserHandler(repo repository.UserRepository, bus EventBus, logger *logrus.Logger) *UpdateUserHandler {
	return &UpdateUserHandler{repo: repo, bus: bus, logger: logger}
}

func (h *UpdateUserHandler) Handle(ctx context.Context, cmd UpdateUserCommand) (dto UserDTO, err error) {
	defer func() {
		metrics.RecordCommand(CommandUpdateUser, commandStatus(err))
		metrics.RecordUserOperation("update", commandStatus(err))
	}()

	user, err := h.repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return UserDTO{}, err
	}
	if err = user.UpdateProfile(cmd.FirstName, cmd.LastName); err != nil {
		return UserDTO{}, err
	}
	saved, err := h.repo.Save(ctx, user)
	if err != nil {
		return UserDTO{}, err
	}
	publishEvents(ctx, h.bus, user, h.logger)
	return toDTO(saved), nil
}

// DeactivateUserHandler soft-deletes a user by flipping the active flag.
type DeactivateUserHandler struct {
	repo   repository.UserRepository
	bus    EventBus
	logger *logrus.Logger
}

func NewDeactivateUserHandler(repo repository.UserRepository, bus EventBus, logger *logrus.Logger) *DeactivateUserHandler {
	return &DeactivateUserHandler{repo: repo, bus: bus, logger: logger}
}

func (h *DeactivateUserHandler) Handle(ctx context.Context, cmd DeactivateUserCommand) (dto UserDTO, err error) {
	defer func() {
		metrics.RecordCommand(CommandDeactivateUser, commandStatus(err))
		metrics.RecordUserOperation("deactivate", commandStatus(err))
	}()

	user, err := h.repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return UserDTO{}, err
	}
	user.Deactivate()
	saved, err := h.repo.Save(ctx, user)
	if err != nil {
		return UserDTO{}, err
	}
	publishEvents(ctx, h.bus, user, h.logger)
	return toDTO(saved), nil
}

// ActivateUserHandler re-enables a previously deactivated user.
type ActivateUserHandler struct {
	repo   repository.UserRepository
	bus    EventBus
	logger *logrus.Logger
}

func NewActivateUserHandler(repo repository.UserRepository, bus EventBus, logger *logrus.Logger) *ActivateUserHandler {
	return &ActivateUserHandler{repo: repo, bus: bus, logger: logger}
}

func (h *ActivateUserHandler) Handle(ctx context.Context, cmd ActivateUserCommand) (dto UserDTO, err error) {
	defer func() {
		metrics.RecordCommand(CommandActivateUser, commandStatus(err))
		metrics.RecordUserOperation("activate", commandStatus(err))
	}()

	user, err := h.repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return UserDTO{}, err
	}
	user.Activate()
	saved, err := h.repo.Save(ctx, user)
	if err != nil {
		return UserDTO{}, err
	}
	publishEvents(ctx, h.bus, user, h.logger)
	return toDTO(saved), nil
}

// UserQueryHandler serves the read side: single-record lookups and paging.
type UserQueryHandler struct {
	repo repository.UserRepository
}

func NewUserQueryHandler(repo repository.UserRepository) *UserQueryHandler {
	return &UserQueryHandler{repo: repo}
}

func (h *UserQueryHandler) GetByID(ctx context.Context, q GetUserByIDQuery) (UserDTO, error) {
	user, err := h.repo.FindByID(ctx, q.UserID)
	metrics.RecordQuery("get_user_by_id", queryStatus(err))
	if err != nil {
		return UserDTO{}, err
	}
	return toDTO(user), nil
}

func (h *UserQueryHandler) GetByEmail(ctx context.Context, q GetUserByEmailQuery) (UserDTO, error) {
	user, err := h.repo.FindByEmail(ctx, q.Email)
	metrics.RecordQuery("get_user_by_email", queryStatus(err))
	if err != nil {
		return UserDTO{}, err
	}
	return toDTO(user), nil
}

func (h *UserQueryHandler) GetByUsername(ctx context.Context, q GetUserByUsernameQuery) (UserDTO, error) {
	user, err := h.repo.FindByUsername(ctx, q.Username)
	metrics.RecordQuery("get_user_by_username", queryStatus(err))
	if err != nil {
		return UserDTO{}, err
	}
	return toDTO(user), nil
}

func (h *UserQueryHandler) List(ctx context.Context, q ListUsersQuery) (UserListDTO, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 || size > 100 {
		size = 100
	}
	users, err := h.repo.List(ctx, size, (page-1)*size)
	if err != nil {
		metrics.RecordQuery("list_users", queryStatus(err))
		return UserListDTO{}, err
	}
	total, err := h.repo.Count(ctx)
	metrics.RecordQuery("list_users", queryStatus(err))
	if err != nil {
		return UserListDTO{}, err
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toDTO(u))
	}
	return UserListDTO{Users: dtos, Total: int(total), Page: page, PageSize: size}, nil
}

func queryStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
