package ordersync

import "context"

// ERPClient performs the outbound HTTP calls to the ERP system. Transport
// failures are not surfaced as errors; they come back as an ERPResponse with
// a zero status code so the retry classification treats them uniformly.
// An error return is reserved for configuration problems detected before any
// network call, such as a missing base URL.
type ERPClient interface {
	// SendOrder posts a serialized order payload to the ERP sync endpoint
	// with the given idempotency key
	SendOrder(ctx context.Context, payload OrderPayload, idempotencyKey string) (*ERPResponse, error)

	// TestConnection probes the ERP health endpoint, swallowing all errors
	TestConnection(ctx context.Context) bool
}
