package docstore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/schedjobs"
)

const PurgeJobID = "docstore-purge"

// PurgeTask removes expired records, logging how many
func PurgeTask(store Store, now func() time.Time, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := store.PurgeExpired(ctx, now())
		if err != nil {
			return err
		}
		logger.Info("expired documents purged", zap.Int64("removed", n))
		return nil
	}
}

// NewPurgeJob runs PurgeTask at minute 0 of every hour
func NewPurgeJob(store Store, logger *zap.Logger) *schedjobs.CronJob {
	return schedjobs.NewHourlyCronJob(PurgeJobID, 0, PurgeTask(store, time.Now, logger))
}
