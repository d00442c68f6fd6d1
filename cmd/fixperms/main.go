// Command fixperms rewrites every stored permission set that no longer
// matches its role. Run it after changing the permission matrix.
package main

import (
	"context"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/gems-crm/backend/internal/core/service"
	"github.com/gems-crm/backend/internal/infrastructure/config"
	"github.com/gems-crm/backend/internal/infrastructure/db/mongo"
	"github.com/gems-crm/backend/internal/infrastructure/queue"
	"github.com/gems-crm/backend/pkg/logger"
)

type settings struct {
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Env      string `env:"ENV,       default=development"`
	Mongo    config.MongoConfig
}

func main() {
	ctx := context.Background()

	var cfg settings
	if err := envconfig.Process(ctx, &cfg); err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env != "production",
		Service: "gems-fixperms",
		Env:     cfg.Env,
	})

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "gems-fixperms",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}

	audit := queue.NewAuditDispatcher(1, mongo.NewAuditRepository(db), nil, log)
	workerCtx, stopWorkers := context.WithCancel(ctx)
	audit.Start(workerCtx)

	team := service.NewTeamService(service.Deps{
		Accounts: mongo.NewAccountRepository(db),
		Audit:    audit,
		Log:      log,
	})

	changed, err := team.RepairPermissions(ctx)

	deadline := time.Now().Add(10 * time.Second)
	for audit.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	stopWorkers()
	audit.Wait()
	_ = client.Disconnect(context.Background())

	if err != nil {
		log.Error().Err(err).Int("changed", changed).Msg("permission repair failed")
		os.Exit(1)
	}
	log.Info().Int("changed", changed).Msg("permission repair complete")
}
