package ordersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

// Management is the external-facing façade over the sync engine: trigger a
// sync, force a resync, query status, accept ERP webhook callbacks, and the
// mock stock stub used by integration tests. Operations return typed result
// values; errors are reserved for preconditions (sync disabled, not found,
// bad signature).
type Management struct {
	service *SyncService
	records ordersync.SyncRecordRepository
	orders  ordersync.OrderStore
	client  ordersync.ERPClient
	config  Config
	logger  *zap.Logger
}

// NewManagement creates the sync management façade
func NewManagement(
	service *SyncService,
	records ordersync.SyncRecordRepository,
	orders ordersync.OrderStore,
	client ordersync.ERPClient,
	config Config,
	logger *zap.Logger,
) *Management {
	return &Management{
		service: service,
		records: records,
		orders:  orders,
		client:  client,
		config:  config,
		logger:  logger.Named("sync-management"),
	}
}

// SyncOrder resolves an order by increment id, creates or loads its sync
// record and runs one sync attempt
func (m *Management) SyncOrder(ctx context.Context, incrementID string) (*SyncOrderResult, error) {
	if !m.config.Enabled {
		return nil, ordersync.ErrSyncDisabled
	}

	order, err := m.orders.GetByIncrementID(ctx, incrementID)
	if err != nil {
		return nil, err
	}

	record, err := m.service.CreateForOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	return m.runAttempt(ctx, record)
}

// ResyncOrder forces another attempt for an order that already has a sync
// record, resetting any backoff state first. Orders without a record are
// handled like a first sync.
func (m *Management) ResyncOrder(ctx context.Context, incrementID string) (*SyncOrderResult, error) {
	if !m.config.Enabled {
		return nil, ordersync.ErrSyncDisabled
	}

	record, err := m.records.GetByIncrementID(ctx, incrementID)
	if errors.Is(err, ordersync.ErrRecordNotFound) {
		return m.SyncOrder(ctx, incrementID)
	}
	if err != nil {
		return nil, err
	}

	if err := m.service.Reschedule(ctx, record); err != nil {
		return nil, err
	}
	return m.runAttempt(ctx, record)
}

func (m *Management) runAttempt(ctx context.Context, record *ordersync.SyncRecord) (*SyncOrderResult, error) {
	res, err := m.service.ProcessSync(ctx, record)
	if errors.Is(err, ordersync.ErrRecordClaimed) {
		return newSyncOrderResult(record, ProcessResult{},
			"a sync attempt for this order is already running"), nil
	}
	if err != nil {
		return nil, err
	}

	message := "order synced successfully"
	if !res.Success {
		message = record.LastError
		if message == "" {
			message = "order sync failed"
		}
	}
	return newSyncOrderResult(record, res, message), nil
}

// GetSyncStatus reports the sync state of an order. Orders without a record
// get a synthetic not_synced status instead of an error.
func (m *Management) GetSyncStatus(ctx context.Context, incrementID string) (*SyncStatusResult, error) {
	record, err := m.records.GetByIncrementID(ctx, incrementID)
	if errors.Is(err, ordersync.ErrRecordNotFound) {
		return &SyncStatusResult{
			OrderIncrementID: incrementID,
			Status:           StatusNotSynced,
			Message:          "order has not been submitted for synchronization",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return newSyncStatusResult(record), nil
}

// ListRecords returns sync records matching the filter, oldest first
func (m *Management) ListRecords(ctx context.Context, filter ordersync.RecordFilter) ([]ordersync.SyncRecord, int64, error) {
	return m.records.List(ctx, filter)
}

// DeleteRecord removes a sync record. Administrative use only; records are
// never deleted automatically.
func (m *Management) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return m.records.Delete(ctx, id)
}

// TestConnection probes the ERP health endpoint
func (m *Management) TestConnection(ctx context.Context) bool {
	return m.client.TestConnection(ctx)
}

// ProcessWebhook applies an ERP status callback to the order's sync record.
// When both a secret and a signature are present the signature is verified
// first; callbacks for records currently in progress are rejected so the ERP
// redelivers once the in-flight attempt settles.
func (m *Management) ProcessWebhook(ctx context.Context, incrementID, erpReference, status, signature string) (*WebhookResult, error) {
	record, err := m.records.GetByIncrementID(ctx, incrementID)
	if err != nil {
		return nil, err
	}

	if signature != "" && m.config.HMACSecret != "" {
		if !ordersync.VerifyWebhookSignature(m.config.HMACSecret, incrementID, erpReference, status, signature) {
			m.logger.Warn("webhook signature mismatch",
				zap.String("order_increment_id", incrementID),
			)
			return nil, ordersync.ErrSignatureMismatch
		}
	}

	if record.Status == ordersync.SyncStatusInProgress {
		return nil, ordersync.ErrRecordInProgress
	}

	result := &WebhookResult{
		Success:          true,
		OrderIncrementID: incrementID,
		ERPReference:     erpReference,
	}

	switch status {
	case ordersync.WebhookStatusAccepted, ordersync.WebhookStatusSuccess:
		record.MarkSuccess(erpReference)
		if err := m.records.Save(ctx, record); err != nil {
			return nil, err
		}
		if err := m.orders.MarkSynced(ctx, record.OrderID, erpReference); err != nil {
			m.logger.Warn("failed to flag order as synced from webhook",
				zap.String("order_increment_id", incrementID),
				zap.Error(err),
			)
		}
		result.Message = "sync record marked as successful"

	case ordersync.WebhookStatusRejected, ordersync.WebhookStatusFailed:
		record.ERPReference = erpReference
		record.MarkFailed(fmt.Sprintf("rejected by ERP: status %q", status))
		if err := m.records.Save(ctx, record); err != nil {
			return nil, err
		}
		result.Message = "sync record marked as failed"

	default:
		// Unknown statuses are acknowledged so the ERP stops redelivering,
		// but cause no state change
		m.logger.Warn("ignoring unknown webhook status",
			zap.String("order_increment_id", incrementID),
			zap.String("status", status),
		)
		result.Message = fmt.Sprintf("ignored unknown status %q", status)
	}

	return result, nil
}

// MockUpdateStock is a synthetic endpoint used to exercise the sync pipeline
// in integration environments. It always succeeds and generates a fresh
// reference each call.
func (m *Management) MockUpdateStock(ctx context.Context, items []MockStockItem, incrementID, idempotencyKey string) *MockStockResult {
	if idempotencyKey == "" {
		idempotencyKey = ordersync.NewIdempotencyKeyGenerator().GenerateFromIncrementID(incrementID, time.Time{})
	}
	return &MockStockResult{
		OK:               true,
		Message:          "stock update accepted",
		OrderIncrementID: incrementID,
		IdempotencyKey:   idempotencyKey,
		ERPReference:     "MOCK-" + uuid.NewString(),
		Items:            items,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
}
