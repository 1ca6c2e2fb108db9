package ordersync

import (
	"github.com/google/uuid"

	"github.com/erpsync/backend/internal/domain/shared"
)

// Event types emitted by the sync engine
const (
	EventTypeOrderInvoiced = "ordersync.order_invoiced"
	EventTypeSyncSucceeded = "ordersync.sync_succeeded"
	EventTypeSyncFailed    = "ordersync.sync_failed"
)

// OrderInvoicedEvent signals that the commerce platform created an invoice
// for an order, which triggers synchronization
type OrderInvoicedEvent struct {
	shared.BaseDomainEvent
	OrderID          string `json:"order_id"`
	OrderIncrementID string `json:"order_increment_id"`
}

// NewOrderInvoicedEvent creates an invoice-created event
func NewOrderInvoicedEvent(orderID, incrementID string) *OrderInvoicedEvent {
	return &OrderInvoicedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderInvoiced, "Order", uuid.Nil),
		OrderID:          orderID,
		OrderIncrementID: incrementID,
	}
}

// SyncSucceededEvent signals that the ERP accepted an order
type SyncSucceededEvent struct {
	shared.BaseDomainEvent
	OrderIncrementID string `json:"order_increment_id"`
	ERPReference     string `json:"erp_reference"`
	Attempts         int    `json:"attempts"`
}

// NewSyncSucceededEvent creates a sync-succeeded event
func NewSyncSucceededEvent(record *SyncRecord) *SyncSucceededEvent {
	return &SyncSucceededEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSyncSucceeded, "SyncRecord", record.ID),
		OrderIncrementID: record.OrderIncrementID,
		ERPReference:     record.ERPReference,
		Attempts:         record.Attempts,
	}
}

// SyncFailedEvent signals a terminal sync failure
type SyncFailedEvent struct {
	shared.BaseDomainEvent
	OrderIncrementID string `json:"order_increment_id"`
	LastError        string `json:"last_error"`
	Attempts         int    `json:"attempts"`
}

// NewSyncFailedEvent creates a sync-failed event
func NewSyncFailedEvent(record *SyncRecord) *SyncFailedEvent {
	return &SyncFailedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSyncFailed, "SyncRecord", record.ID),
		OrderIncrementID: record.OrderIncrementID,
		LastError:        record.LastError,
		Attempts:         record.Attempts,
	}
}
