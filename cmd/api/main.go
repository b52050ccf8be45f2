package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hexcontexts/user-service/config"
	"github.com/hexcontexts/user-service/internal/application"
	"github.com/hexcontexts/user-service/internal/domain/service"
	pginfra "github.com/hexcontexts/user-service/internal/infrastructure/postgres"
	"github.com/hexcontexts/user-service/internal/infrastructure/rabbitmq"
	"github.com/hexcontexts/user-service/internal/infrastructure/search"
	handlers "github.com/hexcontexts/user-service/internal/interface/http"
	"github.com/hexcontexts/user-service/internal/interface/middleware"
	"github.com/hexcontexts/user-service/internal/router"
	"github.com/hexcontexts/user-service/internal/router/modules"
	"github.com/hexcontexts/user-service/pkg/helpers"
	"github.com/hexcontexts/user-service/pkg/metrics"
	"github.com/hexcontexts/user-service/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	go pginfra.WatchPoolStats(ctx, pool, 15*time.Second)

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	broker, err := rabbitmq.NewBroker(cfg.RabbitMQURL, logger)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer broker.Close()
	bus := rabbitmq.NewEventBus(broker, logger)

	jwtManager := helpers.NewJWTManager(cfg.JWTSecret, cfg.AccessTTL)

	// Application layer
	repo := pginfra.NewUserRepository(pool)
	passwords := service.NewPasswordService()
	create := application.NewCreateUserHandler(repo, passwords, bus, logger)
	update := application.NewUpdateUserHandler(repo, bus, logger)
	deactivate := application.NewDeactivateUserHandler(repo, bus, logger)
	activate := application.NewActivateUserHandler(repo, bus, logger)
	queries := application.NewUserQueryHandler(repo)
	auth := application.NewAuthService(repo, passwords, jwtManager, logger)

	// Search index is optional; routes degrade to 503 when unset.
	var index *search.UserIndex
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable, search disabled")
		} else {
			index = search.NewUserIndex(es, cfg.ESUsersIndex, logger)
		}
	}

	go watchGauges(ctx, repo, broker, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.AppName})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	userHandler := handlers.NewUserHandler(create, update, deactivate, activate, queries, index, logger)
	authHandler := handlers.NewAuthHandler(auth, logger)

	reg := router.NewRegistry(r)
	reg.Add(modules.NewUserModule(userHandler, jwtManager, rdb))
	reg.Add(modules.NewAuthModule(authHandler, rdb))
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// watchGauges periodically refreshes the active-user and queue-depth gauges.
func watchGauges(ctx context.Context, repo *pginfra.UserRepository, broker *rabbitmq.Broker, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := repo.CountActive(ctx); err == nil {
				metrics.SetActiveUsers(float64(n))
			} else {
				logger.WithError(err).Debug("count active users failed")
			}
			for _, q := range []string{rabbitmq.QueueUserEvents, rabbitmq.QueueUserCommands, rabbitmq.QueueDomainEvents} {
				if depth, err := broker.QueueDepth(q); err == nil {
					metrics.SetQueueDepth(q, float64(depth))
				}
			}
		}
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
