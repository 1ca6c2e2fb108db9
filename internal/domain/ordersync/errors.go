package ordersync

import "errors"

var (
	// ErrRecordNotFound is returned when no sync record matches the lookup key
	ErrRecordNotFound = errors.New("ordersync: sync record not found")

	// ErrOrderNotFound is returned when the referenced order does not exist
	ErrOrderNotFound = errors.New("ordersync: order not found")

	// ErrDuplicateRecord is returned when a second record would be created
	// for the same order or idempotency key
	ErrDuplicateRecord = errors.New("ordersync: sync record already exists")

	// ErrRecordClaimed is returned when a conditional status transition lost
	// to a concurrent writer
	ErrRecordClaimed = errors.New("ordersync: sync record claimed by another worker")

	// ErrSyncDisabled is returned when order synchronization is disabled by
	// configuration
	ErrSyncDisabled = errors.New("ordersync: synchronization is disabled")

	// ErrMissingBaseURL is returned before any network call when no ERP base
	// URL is configured
	ErrMissingBaseURL = errors.New("ordersync: ERP base URL is not configured")

	// ErrSignatureMismatch is returned when a webhook signature fails
	// verification
	ErrSignatureMismatch = errors.New("ordersync: webhook signature mismatch")

	// ErrRecordInProgress is returned when a webhook arrives while a sync
	// attempt holds the record
	ErrRecordInProgress = errors.New("ordersync: sync record is in progress")
)
