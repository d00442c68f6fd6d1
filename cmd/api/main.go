// @title                       GEMS CRM API
// @version                     1.0
// @description                 Identity and access control for the GEMS CRM backend.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gems-crm/backend/internal/api"
	"github.com/gems-crm/backend/internal/api/handler"
	"github.com/gems-crm/backend/internal/api/metrics"
	"github.com/gems-crm/backend/internal/core/service"
	"github.com/gems-crm/backend/internal/infrastructure/config"
	"github.com/gems-crm/backend/internal/infrastructure/db/mongo"
	"github.com/gems-crm/backend/internal/infrastructure/db/redis"
	"github.com/gems-crm/backend/internal/infrastructure/queue"
	"github.com/gems-crm/backend/internal/infrastructure/security"
	"github.com/gems-crm/backend/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "gems-api",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "gems-api",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	accounts := mongo.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("account indexes failed")
	}

	audit := queue.NewAuditDispatcher(cfg.Audit.Workers, mongo.NewAuditRepository(db), metrics.AuditDrops{}, log)
	metrics.RegisterAuditQueueDepth(audit.Pending)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	audit.Start(workerCtx)

	deps := service.Deps{
		Accounts:        accounts,
		Hasher:          security.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens:          security.NewTokenIssuer(cfg.JWTSecret, cfg.Auth.TokenTTL),
		Limiter:         redis.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout),
		Audit:           audit,
		DefaultPassword: cfg.Auth.DefaultPassword,
		Log:             log,
	}

	e := api.NewRouter(api.RouterDeps{
		Auth: service.NewAuthService(deps),
		Team: service.NewTeamService(deps),
		Health: map[string]handler.Pinger{
			"mongodb": mongo.Pinger{Client: mongoClient},
			"redis":   redis.Pinger{Client: rdb},
		},
		Log: log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	// Give queued audit events a moment to flush before the workers stop.
	drainDeadline := time.Now().Add(5 * time.Second)
	for audit.Pending() > 0 && time.Now().Before(drainDeadline) {
		time.Sleep(50 * time.Millisecond)
	}
	stopWorkers()
	audit.Wait()
	log.Info().Msg("shutdown complete")
}
