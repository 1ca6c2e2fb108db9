package ordersync

import (
	"time"

	"github.com/erpsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Sync Status
// ---------------------------------------------------------------------------

// SyncStatus represents the lifecycle state of a sync record
type SyncStatus string

const (
	// SyncStatusPending indicates a record that was created but never queued
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusQueued indicates a record waiting for its next attempt
	SyncStatusQueued SyncStatus = "queued"
	// SyncStatusInProgress indicates an attempt is currently running
	SyncStatusInProgress SyncStatus = "in_progress"
	// SyncStatusSuccess indicates the order was accepted by the ERP
	SyncStatusSuccess SyncStatus = "success"
	// SyncStatusFailed indicates a terminal failure, no further automatic attempts
	SyncStatusFailed SyncStatus = "failed"
)

// IsValid returns true if the status is one of the known states
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusQueued, SyncStatusInProgress,
		SyncStatusSuccess, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true when no further automatic attempts happen
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusSuccess || s == SyncStatusFailed
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// DueStatuses are the states the sweep runner picks up
func DueStatuses() []SyncStatus {
	return []SyncStatus{SyncStatusPending, SyncStatusQueued, SyncStatusFailed}
}

// ---------------------------------------------------------------------------
// Sync Record
// ---------------------------------------------------------------------------

// SyncRecord tracks one order's synchronization lifecycle. There is at most
// one record per order; the idempotency key is fixed at creation and reused
// for every attempt so the ERP can deduplicate retries.
type SyncRecord struct {
	shared.BaseEntity

	// OrderID is the commerce platform's internal order identifier
	OrderID string
	// OrderIncrementID is the human-facing order number
	OrderIncrementID string
	// Status is the current lifecycle state
	Status SyncStatus
	// Attempts counts ERP call attempts, not enqueues
	Attempts int
	// MaxAttempts is the retry ceiling, copied from configuration at creation
	MaxAttempts int
	// LastAttemptAt is when the most recent ERP call was made
	LastAttemptAt *time.Time
	// NextAttemptAt is when the next attempt is due; only meaningful while queued
	NextAttemptAt *time.Time
	// LastError holds the most recent failure message, cleared on success
	LastError string
	// ERPReference is the identifier assigned by the ERP on success or via webhook
	ERPReference string
	// IdempotencyKey is the deduplication token, set once, never changed
	IdempotencyKey string
	// Payload is the last request body sent, retained for audit
	Payload string
	// Response is the last raw response body received, retained for audit
	Response string
}

// NewSyncRecord creates a pending record for an order with a fresh identity
func NewSyncRecord(orderID, incrementID, idempotencyKey string, maxAttempts int) *SyncRecord {
	return &SyncRecord{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          orderID,
		OrderIncrementID: incrementID,
		Status:           SyncStatusPending,
		Attempts:         0,
		MaxAttempts:      maxAttempts,
		IdempotencyKey:   idempotencyKey,
	}
}

// RecordAttempt increments the attempt counter and stamps the attempt time
func (r *SyncRecord) RecordAttempt(now time.Time) {
	r.Attempts++
	r.LastAttemptAt = &now
	r.Touch()
}

// MarkInProgress moves the record into the in-flight state
func (r *SyncRecord) MarkInProgress() {
	r.Status = SyncStatusInProgress
	r.Touch()
}

// MarkSuccess records ERP acceptance. Success clears the last error and the
// retry schedule.
func (r *SyncRecord) MarkSuccess(erpReference string) {
	r.Status = SyncStatusSuccess
	if erpReference != "" {
		r.ERPReference = erpReference
	}
	r.LastError = ""
	r.NextAttemptAt = nil
	r.Touch()
}

// MarkFailed records a terminal failure
func (r *SyncRecord) MarkFailed(errMsg string) {
	r.Status = SyncStatusFailed
	if errMsg != "" {
		r.LastError = errMsg
	}
	r.NextAttemptAt = nil
	r.Touch()
}

// ScheduleRetry evaluates the backoff rule after a retryable failure. When
// the attempt ceiling is reached the record fails terminally; otherwise it is
// re-queued with delay = baseDelay * 2^attempts.
func (r *SyncRecord) ScheduleRetry(now time.Time, baseDelay time.Duration, errMsg string) {
	if errMsg != "" {
		r.LastError = errMsg
	}
	if r.Attempts >= r.MaxAttempts {
		r.Status = SyncStatusFailed
		r.NextAttemptAt = nil
		r.Touch()
		return
	}
	delay := baseDelay * time.Duration(1<<uint(r.Attempts))
	next := now.Add(delay)
	r.Status = SyncStatusQueued
	r.NextAttemptAt = &next
	r.Touch()
}

// Enqueue makes the record due immediately
func (r *SyncRecord) Enqueue(now time.Time) {
	r.Status = SyncStatusQueued
	r.NextAttemptAt = &now
	r.Touch()
}

// Reschedule forces the record back onto the queue for a manual resync,
// ignoring any backoff state, and clears the last error
func (r *SyncRecord) Reschedule(now time.Time) {
	r.Status = SyncStatusQueued
	r.NextAttemptAt = &now
	r.LastError = ""
	r.Touch()
}

// IsDue reports whether the sweep should pick this record up
func (r *SyncRecord) IsDue(now time.Time) bool {
	switch r.Status {
	case SyncStatusPending, SyncStatusQueued, SyncStatusFailed:
	default:
		return false
	}
	return r.NextAttemptAt == nil || !r.NextAttemptAt.After(now)
}
