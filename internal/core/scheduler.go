package core

// scheduler.go runs background maintenance for the service.
//
// The session reaper periodically drops sessions that have been idle longer
// than the configured timeout. It is context-aware for graceful shutdown and
// only logs; a reap cycle never fails the application.

import (
	"context"
	"log/slog"
	"time"
)

// ReaperConfig holds configuration for the session reaper.
type ReaperConfig struct {
	IdleTimeout   time.Duration // sessions idle longer are removed (default: 30m)
	CheckInterval time.Duration // how often to run (default: 1m)
}

func (c ReaperConfig) withDefaults() ReaperConfig {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Minute
	}
	return c
}

// StartSessionReaper blocks, reaping idle sessions every CheckInterval until
// ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartSessionReaper(ctx context.Context, cfg ReaperConfig) {
	cfg = cfg.withDefaults()
	slog.Info("session reaper started",
		"idle_timeout", cfg.IdleTimeout,
		"check_interval", cfg.CheckInterval,
	)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session reaper stopped")
			return
		case <-ticker.C:
			s.runReapJob(cfg)
		}
	}
}

// runReapJob performs one reap cycle.
func (s *Service) runReapJob(cfg ReaperConfig) {
	start := time.Now()
	reaped := s.ReapIdle(cfg.IdleTimeout)
	if reaped > 0 {
		slog.Info("reaped idle sessions",
			"sessions_reaped", reaped,
			"active_sessions", s.Count(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	slog.Debug("reap job completed", "active_sessions", s.Count())
}
