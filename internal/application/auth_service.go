package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/repository"
	"github.com/hexcontexts/user-service/internal/domain/service"
	"github.com/hexcontexts/user-service/pkg/helpers"
	"github.com/hexcontexts/user-service/pkg/metrics"
)

// TokenDTO is the login/refresh response payload.
type TokenDTO struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService authenticates users and issues, verifies and refreshes JWT
// access tokens.
type AuthService struct {
	repo      repository.UserRepository
	passwords *service.PasswordService
	jwt       *helpers.JWTManager
	logger    *logrus.Logger
}

func NewAuthService(repo repository.UserRepository, passwords *service.PasswordService, jwt *helpers.JWTManager, logger *logrus.Logger) *AuthService {
	return &AuthService{repo: repo, passwords: passwords, jwt: jwt, logger: logger}
}

// Login validates the credentials and issues an access token. Every failure
// path maps to domain.ErrUnauthorized so the caller cannot distinguish a
// missing account from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenDTO, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordAuthAttempt("invalid_credentials")
			return TokenDTO{}, domain.Unauthorizedf("invalid email or password")
		}
		metrics.RecordAuthAttempt("error")
		return TokenDTO{}, err
	}
	if !user.IsActive() {
		metrics.RecordAuthAttempt("inactive_account")
		return TokenDTO{}, domain.Unauthorizedf("user account is inactive")
	}
	if !s.passwords.Verify(password, user.HashedPassword()) {
		metrics.RecordAuthAttempt("invalid_password")
		return TokenDTO{}, domain.Unauthorizedf("invalid email or password")
	}

	token, exp, err := s.jwt.GenerateAccessToken(user.ID(), user.Email().String())
	if err != nil {
		metrics.RecordAuthAttempt("error")
		s.logger.WithError(err).WithField("user_id", user.ID()).Error("generate access token failed")
		return TokenDTO{}, err
	}
	metrics.RecordAuthAttempt("success")
	metrics.RecordJWTTokenIssued()
	return TokenDTO{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID(),
		Email:       user.Email().String(),
		ExpiresAt:   exp,
	}, nil
}

// Verify validates a token and returns its claims.
func (s *AuthService) Verify(token string) (*helpers.Claims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, domain.Unauthorizedf("invalid token")
	}
	return claims, nil
}

// Refresh mints a fresh token from a still-valid one.
func (s *AuthService) Refresh(token string) (TokenDTO, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return TokenDTO{}, domain.Unauthorizedf("invalid or expired token")
	}
	fresh, exp, err := s.jwt.GenerateAccessToken(claims.Subject, claims.Email)
	if err != nil {
		return TokenDTO{}, err
	}
	metrics.RecordJWTTokenIssued()
	return TokenDTO{
		AccessToken: fresh,
		TokenType:   "bearer",
		UserID:      claims.Subject,
		Email:       claims.Email,
		ExpiresAt:   exp,
	}, nil
}
