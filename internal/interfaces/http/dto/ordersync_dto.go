package dto

import (
	"time"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

// IncrementIDRequest binds the order increment id path parameter
type IncrementIDRequest struct {
	IncrementID string `uri:"incrementId" binding:"required,max=50"`
}

// ListSyncRecordsRequest binds the sync record listing query parameters
type ListSyncRecordsRequest struct {
	ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending queued in_progress success failed"`
}

// ERPWebhookRequest is the status callback body delivered by the ERP
type ERPWebhookRequest struct {
	OrderIncrementID string `json:"order_increment_id" binding:"required,max=50"`
	ERPReference     string `json:"erp_reference" binding:"max=100"`
	Status           string `json:"status" binding:"required,max=50"`
	Signature        string `json:"signature" binding:"omitempty,base64"`
}

// InvoiceWebhookRequest announces that an order was invoiced on the platform
type InvoiceWebhookRequest struct {
	OrderIncrementID string `json:"order_increment_id" binding:"required,max=50"`
}

// MockStockItemRequest is one stock line in the mock ERP request
type MockStockItemRequest struct {
	SKU string `json:"sku" binding:"required,max=64"`
	Qty int    `json:"qty" binding:"min=0"`
}

// MockStockRequest is the body of the mock ERP stock endpoint
type MockStockRequest struct {
	OrderIncrementID string                 `json:"order_increment_id" binding:"required,max=50"`
	IdempotencyKey   string                 `json:"idempotency_key" binding:"omitempty,max=100"`
	Items            []MockStockItemRequest `json:"items" binding:"required,min=1,dive"`
}

// SyncRecordResponse is the API representation of a sync record
type SyncRecordResponse struct {
	ID               string     `json:"id"`
	OrderID          string     `json:"order_id"`
	OrderIncrementID string     `json:"order_increment_id"`
	Status           string     `json:"status"`
	Attempts         int        `json:"attempts"`
	MaxAttempts      int        `json:"max_attempts"`
	LastAttemptAt    *time.Time `json:"last_attempt_at,omitempty"`
	NextAttemptAt    *time.Time `json:"next_attempt_at,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	ERPReference     string     `json:"erp_reference,omitempty"`
	IdempotencyKey   string     `json:"idempotency_key"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SyncRecordResponseFromDomain maps a domain sync record to its API shape
func SyncRecordResponseFromDomain(r *ordersync.SyncRecord) SyncRecordResponse {
	return SyncRecordResponse{
		ID:               r.ID.String(),
		OrderID:          r.OrderID,
		OrderIncrementID: r.OrderIncrementID,
		Status:           r.Status.String(),
		Attempts:         r.Attempts,
		MaxAttempts:      r.MaxAttempts,
		LastAttemptAt:    r.LastAttemptAt,
		NextAttemptAt:    r.NextAttemptAt,
		LastError:        r.LastError,
		ERPReference:     r.ERPReference,
		IdempotencyKey:   r.IdempotencyKey,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ConnectionTestResponse reports the ERP health probe outcome
type ConnectionTestResponse struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}
