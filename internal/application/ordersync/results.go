package ordersync

import (
	"time"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

// StatusNotSynced is the synthetic status reported for orders that have no
// sync record yet
const StatusNotSynced = "not_synced"

// SyncOrderResult summarizes one triggered sync attempt
type SyncOrderResult struct {
	Success          bool   `json:"success"`
	SyncID           string `json:"sync_id"`
	OrderIncrementID string `json:"order_increment_id"`
	Status           string `json:"status"`
	Message          string `json:"message"`
	ERPReference     string `json:"erp_reference,omitempty"`
	Attempts         int    `json:"attempts"`
	LastError        string `json:"last_error,omitempty"`
	// Warning carries non-fatal follow-up failures, e.g. the order store
	// refusing the synced flag
	Warning string `json:"warning,omitempty"`
}

// SyncStatusResult is the full read model of a sync record. For orders
// without a record only OrderIncrementID, Status and Message are set.
type SyncStatusResult struct {
	SyncID           string     `json:"sync_id,omitempty"`
	OrderID          string     `json:"order_id,omitempty"`
	OrderIncrementID string     `json:"order_increment_id"`
	Status           string     `json:"status"`
	Attempts         int        `json:"attempts"`
	MaxAttempts      int        `json:"max_attempts,omitempty"`
	LastAttemptAt    *time.Time `json:"last_attempt_at,omitempty"`
	NextAttemptAt    *time.Time `json:"next_attempt_at,omitempty"`
	ERPReference     string     `json:"erp_reference,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	Message          string     `json:"message,omitempty"`
}

// WebhookResult is the outcome of an inbound ERP callback
type WebhookResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	OrderIncrementID string `json:"order_increment_id"`
	ERPReference     string `json:"erp_reference,omitempty"`
}

// MockStockItem is one stock line accepted by the mock endpoint
type MockStockItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// MockStockResult is the synthetic response of the mock ERP stock endpoint
type MockStockResult struct {
	OK               bool            `json:"ok"`
	Message          string          `json:"message"`
	OrderIncrementID string          `json:"order_increment_id"`
	IdempotencyKey   string          `json:"idempotency_key"`
	ERPReference     string          `json:"erp_reference"`
	Items            []MockStockItem `json:"items"`
	Timestamp        string          `json:"timestamp"`
}

// ProcessResult is what one ProcessSync invocation reports
type ProcessResult struct {
	// Success mirrors the record reaching the success state
	Success bool
	// Warning carries a non-fatal follow-up failure, logged but not
	// propagated
	Warning string
}

// SweepResult summarizes one sweep over due sync records
type SweepResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

func newSyncOrderResult(record *ordersync.SyncRecord, res ProcessResult, message string) *SyncOrderResult {
	return &SyncOrderResult{
		Success:          res.Success,
		SyncID:           record.ID.String(),
		OrderIncrementID: record.OrderIncrementID,
		Status:           record.Status.String(),
		Message:          message,
		ERPReference:     record.ERPReference,
		Attempts:         record.Attempts,
		LastError:        record.LastError,
		Warning:          res.Warning,
	}
}

func newSyncStatusResult(record *ordersync.SyncRecord) *SyncStatusResult {
	createdAt := record.CreatedAt
	updatedAt := record.UpdatedAt
	return &SyncStatusResult{
		SyncID:           record.ID.String(),
		OrderID:          record.OrderID,
		OrderIncrementID: record.OrderIncrementID,
		Status:           record.Status.String(),
		Attempts:         record.Attempts,
		MaxAttempts:      record.MaxAttempts,
		LastAttemptAt:    record.LastAttemptAt,
		NextAttemptAt:    record.NextAttemptAt,
		ERPReference:     record.ERPReference,
		LastError:        record.LastError,
		CreatedAt:        &createdAt,
		UpdatedAt:        &updatedAt,
	}
}
