// cmd/historian/main.go pops draft events from the Redis queue and persists
// them to PostgreSQL.
package main

import (
	"context"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mildmongrel/thicket/internal/cache"
	"github.com/mildmongrel/thicket/internal/config"
	"github.com/mildmongrel/thicket/internal/database"
	"github.com/mildmongrel/thicket/internal/historian"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadHistorian()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("failed to prepare schema: %v", err)
	}

	svc := historian.New(rdb, database.NewDraftStore(pool), historian.Options{
		QueueName:  cfg.EventQueue,
		BatchSize:  cfg.BatchSize,
		FlushDelay: cfg.FlushDelay,
		Inactivity: cfg.Inactivity,
	}, logrus.NewEntry(logger))

	svc.Run(ctx)
}
