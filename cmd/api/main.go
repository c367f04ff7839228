package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentals/internal/httpapi"
	"rentals/internal/notify"
	"rentals/pkg/config"
	"rentals/pkg/db"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := httpapi.Dependencies{Cfg: cfg, Log: logger}

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		deps = httpapi.MemoryStores(deps)
	default:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			fatal(logger, "db open", err)
		}
		defer conn.Close()

		if cfg.MigrationsPath != "" {
			if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
				fatal(logger, "migrate", err)
			}
		}
		deps = httpapi.PostgresStores(deps, conn)
	}

	if cfg.Redis.URL != "" {
		pub, err := notify.NewRedisPublisher(cfg.Redis.URL, cfg.Redis.Channel)
		if err != nil {
			fatal(logger, "redis", err)
		}
		defer pub.Close()
		deps.Notifier = pub
		logger.Info("publishing request changes", slog.String("channel", cfg.Redis.Channel))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", slog.String("addr", cfg.HTTPAddr), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "http serve", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
