package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/hexcontexts/user-service/internal/interface/http"
	"github.com/hexcontexts/user-service/internal/interface/middleware"
	"github.com/hexcontexts/user-service/pkg/helpers"
)

// UserModule wires the user CRUD and search routes.
// Public: POST /api/v1/users, GET /api/v1/users, GET /api/v1/users/:id
// Protected: PUT /api/v1/users/:id, DELETE /api/v1/users/:id, GET /api/v1/users/search
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	createLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIP()) // 30 signups/min per IP

	users := rg.Group("/users")
	{
		users.POST("", createLimiter, m.Handler.CreateUser)
		users.GET("", m.Handler.ListUsers)

		protected := users.Group("/")
		protected.Use(middleware.BearerAuth(m.JWT))
		{
			protected.GET("/search", m.Handler.SearchUsers)
			protected.PUT("/:id", m.Handler.UpdateUser)
			protected.DELETE("/:id", m.Handler.DeleteUser)
			protected.POST("/:id/activate", m.Handler.ActivateUser)
		}

		users.GET("/:id", m.Handler.GetUser)
	}
}
