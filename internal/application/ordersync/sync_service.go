package ordersync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/ordersync"
	"github.com/erpsync/backend/internal/domain/shared"
)

// SyncService orchestrates single sync attempts: it claims the record,
// builds the payload, calls the ERP client, interprets the response and
// drives the record's state transitions. Failures never escape ProcessSync;
// every path ends in a persisted state change.
type SyncService struct {
	records ordersync.SyncRecordRepository
	orders  ordersync.OrderStore
	client  ordersync.ERPClient
	keys    *ordersync.IdempotencyKeyGenerator
	events  shared.EventPublisher
	config  Config
	logger  *zap.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewSyncService creates a sync service
func NewSyncService(
	records ordersync.SyncRecordRepository,
	orders ordersync.OrderStore,
	client ordersync.ERPClient,
	events shared.EventPublisher,
	config Config,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		records: records,
		orders:  orders,
		client:  client,
		keys:    ordersync.NewIdempotencyKeyGenerator(),
		events:  events,
		config:  config,
		logger:  logger.Named("sync-service"),
		now:     time.Now,
	}
}

// CreateForOrder returns the order's sync record, creating a pending one
// with a fresh idempotency key when none exists. Idempotent per order.
func (s *SyncService) CreateForOrder(ctx context.Context, order *ordersync.Order) (*ordersync.SyncRecord, error) {
	record, err := s.records.GetByOrderID(ctx, order.ID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ordersync.ErrRecordNotFound) {
		return nil, err
	}

	record = ordersync.NewSyncRecord(order.ID, order.IncrementID, s.keys.Generate(order), s.config.MaxAttempts)
	if err := s.records.Save(ctx, record); err != nil {
		if errors.Is(err, ordersync.ErrDuplicateRecord) {
			// Lost a creation race; the winner's record is the one to use
			return s.records.GetByOrderID(ctx, order.ID)
		}
		return nil, err
	}

	s.logger.Info("sync record created",
		zap.String("sync_id", record.ID.String()),
		zap.String("order_increment_id", record.OrderIncrementID),
	)
	return record, nil
}

// Enqueue creates the order's sync record if needed and makes it due
// immediately
func (s *SyncService) Enqueue(ctx context.Context, order *ordersync.Order) (*ordersync.SyncRecord, error) {
	record, err := s.CreateForOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	record.Enqueue(s.now())
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Reschedule forces a record back onto the queue for a manual resync,
// clearing any backoff state and the last error
func (s *SyncService) Reschedule(ctx context.Context, record *ordersync.SyncRecord) error {
	record.Reschedule(s.now())
	return s.records.Save(ctx, record)
}

// ProcessSync runs one sync attempt for the record. Records already in the
// success state are a no-op. The record is claimed with an atomic
// conditional update first; ErrRecordClaimed means another worker holds it
// and the caller should skip. Every other failure is absorbed into the
// record's state and reported through the result.
func (s *SyncService) ProcessSync(ctx context.Context, record *ordersync.SyncRecord) (ProcessResult, error) {
	if record.Status == ordersync.SyncStatusSuccess {
		return ProcessResult{Success: true}, nil
	}

	if err := s.records.UpdateStatusIf(ctx, record.ID, ordersync.DueStatuses(), ordersync.SyncStatusInProgress); err != nil {
		if errors.Is(err, ordersync.ErrRecordClaimed) {
			s.logger.Debug("sync record claimed elsewhere, skipping",
				zap.String("sync_id", record.ID.String()),
			)
		}
		return ProcessResult{}, err
	}
	record.MarkInProgress()

	order, err := s.orders.GetByID(ctx, record.OrderID)
	if err != nil {
		return s.absorbFailure(ctx, record, fmt.Sprintf("failed to load order %s: %v", record.OrderID, err)), nil
	}

	payload := ordersync.BuildOrderPayload(order)
	if record.IdempotencyKey == "" {
		record.IdempotencyKey = s.keys.Generate(order)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return s.absorbFailure(ctx, record, fmt.Sprintf("failed to serialize payload: %v", err)), nil
	}
	record.Payload = string(body)
	if err := s.records.Save(ctx, record); err != nil {
		// The claim is held but no attempt was made; put the record back on
		// the queue so the next sweep picks it up
		s.releaseClaim(ctx, record)
		return ProcessResult{}, err
	}

	if s.config.Debug {
		s.logger.Info("sending order to ERP",
			zap.String("order_increment_id", record.OrderIncrementID),
			zap.String("idempotency_key", record.IdempotencyKey),
			zap.String("payload", record.Payload),
		)
	}

	response, err := s.client.SendOrder(ctx, payload, record.IdempotencyKey)
	if err != nil {
		// Configuration problems land here; transport failures come back as
		// a response with status code zero
		return s.absorbFailure(ctx, record, err.Error()), nil
	}

	now := s.now()
	record.RecordAttempt(now)
	record.Response = response.Body()

	if response.IsSuccessful() {
		return s.handleSuccess(ctx, record, response), nil
	}
	return s.handleFailure(ctx, record, response, now), nil
}

func (s *SyncService) handleSuccess(ctx context.Context, record *ordersync.SyncRecord, response *ordersync.ERPResponse) ProcessResult {
	record.MarkSuccess(response.ERPID())
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Error("failed to persist successful sync record",
			zap.String("sync_id", record.ID.String()),
			zap.Error(err),
		)
		return ProcessResult{}
	}

	result := ProcessResult{Success: true}
	if err := s.orders.MarkSynced(ctx, record.OrderID, record.ERPReference); err != nil {
		// Best effort only; the sync itself succeeded
		result.Warning = fmt.Sprintf("order could not be flagged as synced: %v", err)
		s.logger.Warn("failed to flag order as synced",
			zap.String("order_increment_id", record.OrderIncrementID),
			zap.Error(err),
		)
	}

	s.logger.Info("order synced to ERP",
		zap.String("order_increment_id", record.OrderIncrementID),
		zap.String("erp_reference", record.ERPReference),
		zap.Int("attempts", record.Attempts),
	)
	s.publish(ctx, ordersync.NewSyncSucceededEvent(record))
	return result
}

func (s *SyncService) handleFailure(ctx context.Context, record *ordersync.SyncRecord, response *ordersync.ERPResponse, now time.Time) ProcessResult {
	errMsg := response.ErrorMessage()

	if !response.IsRetryable() {
		record.MarkFailed(errMsg)
		s.logger.Warn("order sync failed terminally",
			zap.String("order_increment_id", record.OrderIncrementID),
			zap.Int("status_code", response.StatusCode()),
			zap.String("error", errMsg),
		)
	} else {
		record.ScheduleRetry(now, s.config.BaseDelay, errMsg)
		s.logger.Info("order sync failed, retry scheduled",
			zap.String("order_increment_id", record.OrderIncrementID),
			zap.Int("status_code", response.StatusCode()),
			zap.Int("attempts", record.Attempts),
			zap.String("status", record.Status.String()),
		)
	}

	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Error("failed to persist failed sync record",
			zap.String("sync_id", record.ID.String()),
			zap.Error(err),
		)
	}
	if record.Status == ordersync.SyncStatusFailed {
		s.publish(ctx, ordersync.NewSyncFailedEvent(record))
	}
	return ProcessResult{}
}

// absorbFailure handles failures that happen before a response exists:
// order lookup, payload serialization, client configuration. They count as
// an attempt and go through the same backoff rule as a retryable failure.
func (s *SyncService) absorbFailure(ctx context.Context, record *ordersync.SyncRecord, errMsg string) ProcessResult {
	now := s.now()
	record.RecordAttempt(now)
	record.ScheduleRetry(now, s.config.BaseDelay, errMsg)

	s.logger.Warn("sync attempt failed before ERP response",
		zap.String("order_increment_id", record.OrderIncrementID),
		zap.String("error", errMsg),
		zap.String("status", record.Status.String()),
	)

	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Error("failed to persist sync record after failure",
			zap.String("sync_id", record.ID.String()),
			zap.Error(err),
		)
	}
	if record.Status == ordersync.SyncStatusFailed {
		s.publish(ctx, ordersync.NewSyncFailedEvent(record))
	}
	return ProcessResult{}
}

// releaseClaim returns a claimed record to the queue when the attempt could
// not proceed far enough to produce an outcome. Best effort; a record left
// in progress is eventually requeued by the sweep's stale-claim pass.
func (s *SyncService) releaseClaim(ctx context.Context, record *ordersync.SyncRecord) {
	err := s.records.UpdateStatusIf(ctx, record.ID,
		[]ordersync.SyncStatus{ordersync.SyncStatusInProgress}, ordersync.SyncStatusQueued)
	if err != nil {
		s.logger.Error("failed to release claimed sync record",
			zap.String("sync_id", record.ID.String()),
			zap.Error(err),
		)
		return
	}
	record.Status = ordersync.SyncStatusQueued
}

func (s *SyncService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}
