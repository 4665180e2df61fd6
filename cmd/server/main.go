package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"arcadia/internal/platform/config"
	"arcadia/internal/platform/httpserver"
	"arcadia/internal/platform/logger"
)

// main wires the modules, the event bus and the broker edges, then serves
// the ops endpoints until a signal arrives.
func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close(log)

	srv := httpserver.New(cfg.Server.Addr, httpserver.NewOpsRouter(app.health, app.metrics, app.gatherer))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting ops server", "addr", cfg.Server.Addr, "store", cfg.Store, "instance_id", cfg.InstanceID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	for _, worker := range app.workers {
		g.Go(func() error {
			if err := worker.run(gctx); err != nil {
				return fmt.Errorf("%s: %w", worker.name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("ops server shutdown", "error", err)
		}
		if err := app.bus.Shutdown(shutdownCtx); err != nil {
			log.Warn("event bus did not drain", "error", err)
		}
		return nil
	})
	return g.Wait()
}
