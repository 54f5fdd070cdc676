package session

import (
	"context"
	"log/slog"
	"time"
)

// RunSweeper calls SweepExpired every interval until ctx is cancelled.
// The cron endpoint stays the primary trigger; this is for deployments
// without an external scheduler.
func RunSweeper(ctx context.Context, mgr Manager, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Session sweeper started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			deleted, err := mgr.SweepExpired(ctx)
			if err != nil {
				logger.Error("Failed to sweep expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("Swept expired sessions", "deleted", deleted)
			}
		}
	}
}
