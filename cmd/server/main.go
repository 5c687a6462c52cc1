package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvorganizer/internal/config"
	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/logging"
	"github.com/JonMunkholm/csvorganizer/internal/store"
	_ "github.com/JonMunkholm/csvorganizer/internal/store/postgres" // register backends
	_ "github.com/JonMunkholm/csvorganizer/internal/store/sqlite"
	"github.com/JonMunkholm/csvorganizer/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"template_store", cfg.Store.Kind,
		"max_sessions", cfg.Session.MaxSessions,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Shared template store, if configured; otherwise each session keeps its own.
	var templates core.TemplateStore
	if cfg.Store.Shared() {
		st, err := store.New(ctx, store.Config{
			Kind:     cfg.Store.Kind,
			DSN:      cfg.Store.DSN,
			MaxConns: int32(cfg.Store.MaxConns),
		})
		if err != nil {
			slog.Error("failed to open template store", "kind", cfg.Store.Kind, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		templates = st
		slog.Info("template store opened", "kind", cfg.Store.Kind)
	}

	service := core.NewService(core.ServiceConfig{
		MaxSessions: cfg.Session.MaxSessions,
		Templates:   templates,
	})
	loads := core.NewLoadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)

	server := web.NewServer(cfg, service, loads)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	go service.StartSessionReaper(jobCtx, core.ReaperConfig{
		IdleTimeout:   cfg.Session.IdleTimeout,
		CheckInterval: cfg.Session.ReapInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight file loads (with timeout)
		if status := loads.Status(); status.Active > 0 {
			slog.Info("waiting for file loads to complete", "active", status.Active)
			if err := loads.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("file loads did not complete in time", "error", err)
			} else {
				slog.Info("all file loads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
