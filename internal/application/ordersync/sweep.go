package ordersync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

// DefaultSweepBatchSize caps how many due records one sweep processes
const DefaultSweepBatchSize = 100

// SweepRunner processes due sync records sequentially. It is invoked by the
// scheduler and by the manual trigger endpoint; overlapping invocations are
// safe because each record is claimed with a conditional status update
// before processing.
type SweepRunner struct {
	service   *SyncService
	records   ordersync.SyncRecordRepository
	config    Config
	batchSize int
	logger    *zap.Logger

	now func() time.Time
}

// NewSweepRunner creates a sweep runner. A batchSize of zero or less uses
// the default.
func NewSweepRunner(
	service *SyncService,
	records ordersync.SyncRecordRepository,
	config Config,
	batchSize int,
	logger *zap.Logger,
) *SweepRunner {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &SweepRunner{
		service:   service,
		records:   records,
		config:    config,
		batchSize: batchSize,
		logger:    logger.Named("sweep-runner"),
		now:       time.Now,
	}
}

// RunOnce performs one sweep: select due records oldest first, bounded by
// the batch size, and run one sync attempt each. Per-record failures are
// counted and logged, never aborting the sweep.
func (r *SweepRunner) RunOnce(ctx context.Context) (SweepResult, error) {
	if !r.config.Enabled {
		return SweepResult{}, ordersync.ErrSyncDisabled
	}

	if r.config.StaleClaimAge > 0 {
		cutoff := r.now().Add(-r.config.StaleClaimAge)
		released, err := r.records.ReleaseStale(ctx, cutoff)
		if err != nil {
			r.logger.Error("failed to requeue stale sync claims", zap.Error(err))
		} else if released > 0 {
			r.logger.Warn("requeued stale sync claims", zap.Int64("released", released))
		}
	}

	due, err := r.records.FindDue(ctx, r.now(), r.batchSize)
	if err != nil {
		return SweepResult{}, err
	}

	var result SweepResult
	for i := range due {
		record := &due[i]
		result.Processed++

		res, err := r.service.ProcessSync(ctx, record)
		switch {
		case errors.Is(err, ordersync.ErrRecordClaimed):
			result.Skipped++
		case err != nil:
			result.Failed++
			r.logger.Error("sweep attempt errored",
				zap.String("sync_id", record.ID.String()),
				zap.String("order_increment_id", record.OrderIncrementID),
				zap.Error(err),
			)
		case res.Success:
			result.Succeeded++
		default:
			result.Failed++
		}
	}

	if result.Processed > 0 {
		r.logger.Info("sweep finished",
			zap.Int("processed", result.Processed),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
		)
	}
	return result, nil
}
