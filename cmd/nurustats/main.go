package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gboigwe/nuru-sub002/config"
	"github.com/gboigwe/nuru-sub002/internal/app"
	httpserver "github.com/gboigwe/nuru-sub002/internal/handlers/http"
	"github.com/gboigwe/nuru-sub002/internal/lib/logger/handlers/slogpretty"
	"github.com/gboigwe/nuru-sub002/pkg/utils"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.LoadConfig()
	log := setupLogger(cfg.Env)

	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutting down...")
		cancel()
	}()

	log.Info("Initializing app...")

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to initialize app: %v", err))
		os.Exit(1)
	}

	// Start event processor
	log.Info("Starting event processor...")
	go application.EventProcessor.Run(ctx)

	// Demo mode: generate synthetic payment lifecycles so dashboards have
	// something to show without a live chain. Not for production use.
	if cfg.DemoEvents {
		generator := utils.NewEventGenerator()
		go func() {
			log.Info("Starting demo event generator...")
			for ctx.Err() == nil {
				events := generator.GenerateBatch(20)
				if application.Publisher != nil {
					if err := application.Publisher.ExecuteBatch(ctx, events); err != nil && ctx.Err() == nil {
						log.Error(fmt.Sprintf("Failed to publish demo events: %v", err))
					}
				} else {
					for _, ev := range events {
						application.EventCh <- ev
					}
				}
				time.Sleep(500 * time.Millisecond)
			}
			log.Info("Demo event generator stopped")
		}()
	}

	// Set up HTTP server
	httpAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	httpServer := httpserver.NewServer(httpAddr, application.Query, application.Broadcaster, application.Handler)

	// Start HTTP server in a goroutine
	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", httpAddr))
		if err := httpServer.Start(); err != nil {
			log.Info(fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Clean up app resources
	log.Info("Cleaning up app resources...")
	application.Cleanup(ctx)

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server with timeout
	log.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Info(fmt.Sprintf("HTTP server shutdown error: %v", err))
	}

	// Add a small delay to allow shutdown handlers to complete
	timer := time.NewTimer(500 * time.Millisecond)
	select {
	case <-timer.C:
	case <-shutdownCtx.Done():
	}

	log.Info("Service stopped.")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
