package ordersync

import "time"

// Config carries the sync engine's behavioral options. It is built once at
// startup and injected into the services; components never read global
// configuration.
type Config struct {
	// Enabled gates all sync activity. Status queries still work when off.
	Enabled bool
	// ImmediateSyncOnInvoice runs a sync attempt inline when an invoice is
	// created instead of waiting for the next sweep
	ImmediateSyncOnInvoice bool
	// Debug raises payload and response logging
	Debug bool
	// MaxAttempts is the retry ceiling copied onto new sync records
	MaxAttempts int
	// BaseDelay is the backoff base; the delay before retry n is
	// BaseDelay * 2^n
	BaseDelay time.Duration
	// StaleClaimAge is how long a record may sit in progress before the
	// sweep assumes its claim was orphaned by a crash and requeues it
	StaleClaimAge time.Duration
	// HMACSecret verifies inbound webhook signatures. Webhooks are accepted
	// unsigned when empty.
	HMACSecret string
}

// DefaultConfig returns the sync options used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		MaxAttempts:   5,
		BaseDelay:     60 * time.Second,
		StaleClaimAge: 10 * time.Minute,
	}
}
