package ordersync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordFilter defines filter criteria for listing sync records
type RecordFilter struct {
	// Status filters by lifecycle state (optional)
	Status *SyncStatus
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// SyncRecordRepository persists sync records. Lookups return
// ErrRecordNotFound when no record matches; Save rejects a second record for
// the same order or idempotency key with ErrDuplicateRecord.
type SyncRecordRepository interface {
	// Save creates or updates a sync record
	Save(ctx context.Context, record *SyncRecord) error

	// GetByID finds a record by its surrogate id
	GetByID(ctx context.Context, id uuid.UUID) (*SyncRecord, error)

	// GetByOrderID finds the record for an order's internal id
	GetByOrderID(ctx context.Context, orderID string) (*SyncRecord, error)

	// GetByIncrementID finds the record for an order's human-facing number
	GetByIncrementID(ctx context.Context, incrementID string) (*SyncRecord, error)

	// GetByIdempotencyKey finds a record by its deduplication token
	GetByIdempotencyKey(ctx context.Context, key string) (*SyncRecord, error)

	// List returns records matching the filter ordered oldest first, plus
	// the total count
	List(ctx context.Context, filter RecordFilter) ([]SyncRecord, int64, error)

	// FindDue returns up to limit records the sweep should process: status
	// in DueStatuses and next attempt unset or due, oldest first
	FindDue(ctx context.Context, now time.Time, limit int) ([]SyncRecord, error)

	// ReleaseStale requeues records stuck in progress since before the
	// cutoff, i.e. claims orphaned by a crashed worker. Returns how many
	// records were released.
	ReleaseStale(ctx context.Context, before time.Time) (int64, error)

	// UpdateStatusIf atomically moves a record from one of the expected
	// states to the target state. Returns ErrRecordClaimed when the record
	// is no longer in any expected state.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected []SyncStatus, target SyncStatus) error

	// Delete removes a record; an administrative operation, never invoked
	// automatically
	Delete(ctx context.Context, id uuid.UUID) error
}
