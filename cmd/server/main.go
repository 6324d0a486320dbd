// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mildmongrel/thicket/internal/auth"
	"github.com/mildmongrel/thicket/internal/cache"
	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/config"
	"github.com/mildmongrel/thicket/internal/database"
	"github.com/mildmongrel/thicket/internal/handlers"
	"github.com/mildmongrel/thicket/internal/middleware"
	"github.com/mildmongrel/thicket/internal/room"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadServer()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatalf("failed to load catalog: %v", err)
	}
	logger.Infof("loaded %d sets from %s", len(cat.SetCodes()), cfg.CatalogPath)

	tokens, err := auth.NewTokenIssuer(cfg.TokenTTL)
	if err != nil {
		logger.Fatalf("failed to create token issuer: %v", err)
	}

	opts := room.Options{Timeouts: cfg.Timeouts}

	// history
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		opts.Events = cache.NewPublisher(rdb, cfg.EventQueue)
		logger.Infof("publishing draft events to %s/%s", cfg.RedisAddr, cfg.EventQueue)
	} else {
		logger.Info("REDIS_ADDR not set, draft events are not published")
	}

	// decks
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.Fatalf("failed to prepare schema: %v", err)
		}
		opts.Results = database.NewDraftStore(pool)
	} else {
		logger.Info("no database configured, draft decks are not recorded")
	}

	srv := handlers.NewDraftServer(cat, tokens, opts, logger)
	logged := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.Handle("/draft/ws", logged(handlers.DraftWSHandler(logger, srv)))
	mux.Handle("/rooms", logged(handlers.RoomsHandler(srv)))
	mux.Handle("/capabilities", logged(handlers.CapabilitiesHandler(srv)))
	mux.HandleFunc("/healthz", handlers.HealthHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", server.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	case <-ctx.Done():
		logger.Info("terminating")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	for _, r := range srv.Rooms().List() {
		r.Close()
	}
}
