package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/hexcontexts/user-service/internal/interface/http"
	"github.com/hexcontexts/user-service/internal/interface/middleware"
)

// AuthModule wires the token endpoints.
// Public: POST /api/v1/auth/login, POST /api/v1/auth/verify, POST /api/v1/auth/refresh
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath()) // 10 attempts/min per IP
	refreshLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP())

	auth := rg.Group("/auth")
	{
		auth.POST("/login", loginLimiter, m.Handler.Login)
		auth.POST("/verify", m.Handler.Verify)
		auth.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	}
}
