package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hexcontexts/user-service/config"
	"github.com/hexcontexts/user-service/internal/application"
	"github.com/hexcontexts/user-service/internal/domain/service"
	pginfra "github.com/hexcontexts/user-service/internal/infrastructure/postgres"
	"github.com/hexcontexts/user-service/internal/infrastructure/rabbitmq"
	"github.com/hexcontexts/user-service/internal/infrastructure/search"
	"github.com/hexcontexts/user-service/pkg/helpers"
	"github.com/hexcontexts/user-service/pkg/mailer"
)

// The worker consumes user_commands and user_events. Commands re-apply writes
// through the same handlers the API uses; events drive the welcome email and
// the Elasticsearch read model.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	broker, err := rabbitmq.NewBroker(cfg.RabbitMQURL, logger)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer broker.Close()
	bus := rabbitmq.NewEventBus(broker, logger)

	repo := pginfra.NewUserRepository(pool)
	passwords := service.NewPasswordService()
	create := application.NewCreateUserHandler(repo, passwords, bus, logger)
	queries := application.NewUserQueryHandler(repo)

	var welcome rabbitmq.WelcomeMailer
	if cfg.MailSendEnabled && cfg.MailgunDomain != "" {
		welcome = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	}

	var indexer rabbitmq.UserIndexer
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable, projection disabled")
		} else {
			indexer = search.NewUserIndex(es, cfg.ESUsersIndex, logger)
		}
	}

	commands := rabbitmq.NewUserCommandConsumer(create, logger)
	events := rabbitmq.NewUserEventConsumer(queries, welcome, indexer, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- commands.Start(ctx, broker) }()
	go func() { errCh <- events.Start(ctx, broker) }()

	logger.Info("worker started")
	select {
	case <-ctx.Done():
		logger.Info("worker shutting down")
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("consumer stopped")
		}
	}
}
