package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexcontexts/user-service/internal/application"
	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
	"github.com/hexcontexts/user-service/internal/domain/service"
	"github.com/hexcontexts/user-service/pkg/validation"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: domain.Validationf("bad input"), want: http.StatusBadRequest},
		{name: "conflict", err: domain.Conflictf("duplicate"), want: http.StatusConflict},
		{name: "not found", err: domain.NotFoundf("missing"), want: http.StatusNotFound},
		{name: "unauthorized", err: domain.Unauthorizedf("nope"), want: http.StatusUnauthorized},
		{name: "wrapped validation", err: domain.Validationf("outer: %v", "inner"), want: http.StatusBadRequest},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

type stubRepo struct {
	users map[string]*entity.User
}

func newStubRepo() *stubRepo { return &stubRepo{users: map[string]*entity.User{}} }

func (r *stubRepo) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	r.users[u.ID()] = u
	return u, nil
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domain.NotFoundf("user %s not found", id)
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email().String() == email {
			return u, nil
		}
	}
	return nil, domain.NotFoundf("user with email %s not found", email)
}

func (r *stubRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Username().String() == username {
			return u, nil
		}
	}
	return nil, domain.NotFoundf("user with username %s not found", username)
}

func (r *stubRepo) List(_ context.Context, _, _ int) ([]*entity.User, error) {
	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	return all, nil
}

func (r *stubRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *stubRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *stubRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type stubBus struct{}

func (stubBus) Publish(context.Context, []entity.Event) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *stubRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := newStubRepo()
	passwords := service.NewPasswordService()
	h := NewUserHandler(
		application.NewCreateUserHandler(repo, passwords, stubBus{}, logger),
		application.NewUpdateUserHandler(repo, stubBus{}, logger),
		application.NewDeactivateUserHandler(repo, stubBus{}, logger),
		application.NewActivateUserHandler(repo, stubBus{}, logger),
		application.NewUserQueryHandler(repo),
		nil,
		logger,
	)

	r := gin.New()
	r.POST("/api/v1/users", h.CreateUser)
	r.GET("/api/v1/users", h.ListUsers)
	r.GET("/api/v1/users/:id", h.GetUser)
	r.PUT("/api/v1/users/:id", h.UpdateUser)
	r.DELETE("/api/v1/users/:id", h.DeleteUser)
	r.POST("/api/v1/users/:id/activate", h.ActivateUser)
	r.GET("/api/v1/users/search", h.SearchUsers)
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPayload() gin.H {
	return gin.H{
		"email":      "alice@example.com",
		"username":   "alice_42",
		"first_name": "Alice",
		"last_name":  "Smith",
		"password":   "Sup3rSecret",
	}
}

func TestCreateUserEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(t, r, http.MethodPost, "/api/v1/users", createPayload())
		require.Equal(t, http.StatusCreated, w.Code)

		var res struct {
			Success bool                `json:"success"`
			Data    application.UserDTO `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, "alice@example.com", res.Data.Email)
		assert.NotContains(t, w.Body.String(), "Sup3rSecret")
	})

	t.Run("invalid payload", func(t *testing.T) {
		r, _ := newTestRouter(t)

		payload := createPayload()
		payload["email"] = "not-an-email"
		w := doJSON(t, r, http.MethodPost, "/api/v1/users", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		r, _ := newTestRouter(t)

		require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/v1/users", createPayload()).Code)
		assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodPost, "/api/v1/users", createPayload()).Code)
	})
}

func TestUserLifecycleEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/users", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data application.UserDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Data.ID

	t.Run("get", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/users/"+id, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/users/unknown", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/v1/users/"+id, gin.H{"first_name": "Alicia"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Alicia Smith")
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/users?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":1`)
	})

	t.Run("delete deactivates", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/v1/users/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":false`)
	})

	t.Run("activate restores the account", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/users/"+id+"/activate", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":true`)
	})

	t.Run("search unavailable without index", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/users/search?q=alice", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
