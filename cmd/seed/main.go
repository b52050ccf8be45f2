package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"

	"github.com/hexcontexts/user-service/config"
	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
	"github.com/hexcontexts/user-service/internal/domain/service"
	pginfra "github.com/hexcontexts/user-service/internal/infrastructure/postgres"
	"github.com/hexcontexts/user-service/pkg/helpers"
)

// Seeds a demo account for local development. Safe to run repeatedly.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := pginfra.NewUserRepository(pool)
	passwords := service.NewPasswordService()

	hashed, err := passwords.Hash("ChangeMe123")
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}
	user, err := entity.NewUser("demo@example.com", "demo_user", "Demo", "User", hashed)
	if err != nil {
		log.Fatalf("build seed user: %v", err)
	}

	if _, err := repo.Save(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logger.Info("seed user already exists")
			return
		}
		log.Fatalf("save seed user: %v", err)
	}
	logger.WithField("user_id", user.ID()).Info("seed user created")
}
