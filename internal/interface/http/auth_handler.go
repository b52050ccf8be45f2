package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hexcontexts/user-service/internal/application"
	"github.com/hexcontexts/user-service/pkg/response"
	"github.com/hexcontexts/user-service/pkg/validation"
)

// AuthHandler exposes login, verify and refresh.
type AuthHandler struct {
	Auth   *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	token, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).Error("login failed")
			response.Error[any](c, status, "login failed", nil)
			return
		}
		response.Error[any](c, status, "authentication failed", err.Error())
		return
	}
	response.Success(c, http.StatusOK, token, "login successful", nil)
}

// Verify POST /api/v1/auth/verify — accepts the token in the body or the
// Authorization header.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := tokenFromRequest(c)
	if token == "" {
		response.Error[any](c, http.StatusBadRequest, "missing token", nil)
		return
	}
	claims, err := h.Auth.Verify(token)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid token", err.Error())
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user_id": claims.Subject,
		"email":   claims.Email,
		"valid":   true,
	}, "token valid", nil)
}

// Refresh POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := tokenFromRequest(c)
	if token == "" {
		response.Error[any](c, http.StatusBadRequest, "missing token", nil)
		return
	}
	fresh, err := h.Auth.Refresh(token)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.Logger.WithError(err).Error("token refresh failed")
			response.Error[any](c, status, "token refresh failed", nil)
			return
		}
		response.Error[any](c, status, "token refresh failed", err.Error())
		return
	}
	response.Success(c, http.StatusOK, fresh, "token refreshed", nil)
}

func tokenFromRequest(c *gin.Context) string {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Token != "" {
		return req.Token
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
