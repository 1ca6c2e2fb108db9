package ordersync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// idempotencyKeyPrefix marks keys produced by this engine
const idempotencyKeyPrefix = "ERP_"

// IdempotencyKeyGenerator derives stable deduplication tokens from order
// identity. The same order always yields the same key, across process
// restarts, so the ERP can recognize retries.
type IdempotencyKeyGenerator struct{}

// NewIdempotencyKeyGenerator creates a key generator
func NewIdempotencyKeyGenerator() *IdempotencyKeyGenerator {
	return &IdempotencyKeyGenerator{}
}

// Generate derives the key for an order from its increment id, internal id
// and creation time. Deterministic for a given order.
func (g *IdempotencyKeyGenerator) Generate(order *Order) string {
	return g.fromParts(order.IncrementID, order.ID, order.CreatedAt)
}

// GenerateFromIncrementID derives a key when full order identity is not
// available, e.g. a manual resync. The seed is the two-part
// incrementID_timestamp. When at is zero the current time is used, so two
// such calls may yield different keys.
func (g *IdempotencyKeyGenerator) GenerateFromIncrementID(incrementID string, at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	return hashSeed(fmt.Sprintf("%s_%d", incrementID, at.Unix()))
}

func (g *IdempotencyKeyGenerator) fromParts(incrementID, entityID string, createdAt time.Time) string {
	return hashSeed(fmt.Sprintf("%s_%s_%d", incrementID, entityID, createdAt.Unix()))
}

func hashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return idempotencyKeyPrefix + hex.EncodeToString(sum[:])
}
