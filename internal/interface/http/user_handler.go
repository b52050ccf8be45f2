package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hexcontexts/user-service/internal/application"
	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/infrastructure/search"
	"github.com/hexcontexts/user-service/pkg/response"
	"github.com/hexcontexts/user-service/pkg/validation"
)

// UserHandler exposes the user CRUD surface over the command and query
// handlers.
type UserHandler struct {
	Create     *application.CreateUserHandler
	Update     *application.UpdateUserHandler
	Deactivate *application.DeactivateUserHandler
	Activate   *application.ActivateUserHandler
	Queries    *application.UserQueryHandler
	Index      *search.UserIndex
	Logger     *logrus.Logger
}

func NewUserHandler(create *application.CreateUserHandler, update *application.UpdateUserHandler, deactivate *application.DeactivateUserHandler, activate *application.ActivateUserHandler, queries *application.UserQueryHandler, index *search.UserIndex, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Create: create, Update: update, Deactivate: deactivate, Activate: activate, Queries: queries, Index: index, Logger: logger}
}

type createUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,uname"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required,strongpwd"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// statusFor maps the domain error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (h *UserHandler) respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithError(err).Error(message)
		response.Error[any](c, status, message, nil)
		return
	}
	response.Error[any](c, status, message, err.Error())
}

// CreateUser POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	dto, err := h.Create.Handle(c.Request.Context(), application.CreateUserCommand{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.respondError(c, err, "failed to create user")
		return
	}
	response.Success(c, http.StatusCreated, dto, "user created", nil)
}

// GetUser GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	dto, err := h.Queries.GetByID(c.Request.Context(), application.GetUserByIDQuery{UserID: c.Param("id")})
	if err != nil {
		h.respondError(c, err, "user not found")
		return
	}
	response.Success(c, http.StatusOK, dto, "user", nil)
}

// ListUsers GET /api/v1/users?page=&page_size=
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "100"))
	dto, err := h.Queries.List(c.Request.Context(), application.ListUsersQuery{Page: page, PageSize: size})
	if err != nil {
		h.respondError(c, err, "failed to list users")
		return
	}
	response.Success(c, http.StatusOK, dto, "users", gin.H{"page": dto.Page, "page_size": dto.PageSize})
}

// UpdateUser PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	dto, err := h.Update.Handle(c.Request.Context(), application.UpdateUserCommand{
		UserID:    c.Param("id"),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.respondError(c, err, "failed to update user")
		return
	}
	response.Success(c, http.StatusOK, dto, "user updated", nil)
}

// DeleteUser DELETE /api/v1/users/:id — soft delete via deactivation.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	dto, err := h.Deactivate.Handle(c.Request.Context(), application.DeactivateUserCommand{UserID: c.Param("id")})
	if err != nil {
		h.respondError(c, err, "failed to deactivate user")
		return
	}
	response.Success(c, http.StatusOK, dto, "user deactivated", nil)
}

// ActivateUser POST /api/v1/users/:id/activate — reverses a soft delete.
func (h *UserHandler) ActivateUser(c *gin.Context) {
	dto, err := h.Activate.Handle(c.Request.Context(), application.ActivateUserCommand{UserID: c.Param("id")})
	if err != nil {
		h.respondError(c, err, "failed to activate user")
		return
	}
	response.Success(c, http.StatusOK, dto, "user activated", nil)
}

// SearchUsers GET /api/v1/users/search?q=&size= (bearer-protected)
func (h *UserHandler) SearchUsers(c *gin.Context) {
	if h.Index == nil {
		response.Error[any](c, http.StatusServiceUnavailable, "search not configured", nil)
		return
	}
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Index.Search(c.Request.Context(), q, size)
	if err != nil {
		h.respondError(c, err, "search failed")
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}
