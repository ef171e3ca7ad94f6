package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/nocturne-labs/dreamscape/pkg/ai"
	"github.com/nocturne-labs/dreamscape/pkg/api"
	"github.com/nocturne-labs/dreamscape/pkg/bootstrap"
	"github.com/nocturne-labs/dreamscape/pkg/chat"
	"github.com/nocturne-labs/dreamscape/pkg/config"
	"github.com/nocturne-labs/dreamscape/pkg/conflict"
	"github.com/nocturne-labs/dreamscape/pkg/db"
	"github.com/nocturne-labs/dreamscape/pkg/emotion"
	"github.com/nocturne-labs/dreamscape/pkg/extract"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
	"github.com/nocturne-labs/dreamscape/pkg/respond"
	"github.com/nocturne-labs/dreamscape/pkg/session"
)

func main() {
	logger := bootstrap.NewLogger()

	envs, err := config.LoadConfig(true)
	if err != nil {
		panic(errors.Wrap(err, "Unable to load config"))
	}
	logger.Info("Using database path", "path", envs.DBPath)

	natsServer, err := bootstrap.StartEmbeddedNATSServer(logger)
	if err != nil {
		panic(errors.Wrap(err, "Unable to start nats server"))
	}
	defer natsServer.Shutdown()

	nc, err := bootstrap.NewNatsClient()
	if err != nil {
		panic(errors.Wrap(err, "Unable to create nats client"))
	}
	defer nc.Close()
	logger.Info("NATS client started")

	store, err := db.NewStore(envs.DBPath)
	if err != nil {
		logger.Error("Unable to create or initialize database", "error", err)
		panic(errors.Wrap(err, "Unable to create or initialize database"))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing store", "error", err)
		}
	}()
	logger.Info("SQLite database initialized")

	completions := ai.NewOpenAIService(logger, envs.CompletionsAPIKey, envs.CompletionsAPIURL)

	sessions := session.NewStore(logger, envs.SessionTimeout)
	bank := memory.NewBank(logger)
	chatService := chat.NewService(
		logger,
		sessions,
		bank,
		extract.NewExtractor(logger, completions, envs.CompletionsModel),
		emotion.NewDetector(logger, completions, envs.CompletionsModel),
		conflict.NewResolver(logger),
		respond.NewEngine(logger, completions, envs.CompletionsModel),
		store,
		nc,
	)

	if err := chatService.LoadSnapshot(context.Background()); err != nil {
		logger.Error("Failed to load knowledge snapshot, starting empty", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runBackgroundTasks(ctx, logger, chatService, envs.SweepInterval, envs.SnapshotInterval)

	handler := api.NewHandler(logger, chatService)
	server := &http.Server{
		Addr:    ":" + envs.HTTPPort,
		Handler: handler.Router(strings.Split(envs.AllowedOrigins, ",")),
	}

	go func() {
		logger.Info("HTTP server listening", "port", envs.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped unexpectedly", "error", err)
			panic(errors.Wrap(err, "HTTP server stopped unexpectedly"))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := chatService.SaveSnapshot(shutdownCtx); err != nil {
		logger.Error("Final snapshot save failed", "error", err)
	}
}

// runBackgroundTasks drives the session sweep and the interval snapshot
// flush. Each run completes or fails on its own; failures are logged,
// never fatal.
func runBackgroundTasks(ctx context.Context, logger *log.Logger, chatService *chat.Service, sweepEvery, snapshotEvery time.Duration) {
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()
	snapshot := time.NewTicker(snapshotEvery)
	defer snapshot.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			chatService.SweepSessions()
		case <-snapshot.C:
			if err := chatService.SaveSnapshot(ctx); err != nil {
				logger.Error("Periodic snapshot save failed", "error", err)
			}
		}
	}
}
