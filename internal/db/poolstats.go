package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// PoolStatsRecorder receives periodic connection pool snapshots.
type PoolStatsRecorder interface {
	RecordDBPoolStats(sql.DBStats)
}

// StartPoolStatsReporter samples db.Stats every interval until ctx is done.
func StartPoolStatsReporter(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	rec PoolStatsRecorder,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := db.Stats()
				rec.RecordDBPoolStats(stats)
				if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
					log.Warn("database pool exhausted",
						zap.Int("in_use", stats.InUse),
						zap.Int64("wait_count", stats.WaitCount),
					)
				}
			}
		}
	}()
}
