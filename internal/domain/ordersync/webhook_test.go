package ordersync

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSignature(t *testing.T) {
	t.Run("produces valid base64", func(t *testing.T) {
		sig := WebhookSignature("secret", "100000999", "SO-1001", WebhookStatusAccepted)

		raw, err := base64.StdEncoding.DecodeString(sig)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
	})

	t.Run("deterministic", func(t *testing.T) {
		a := WebhookSignature("secret", "100000999", "SO-1001", WebhookStatusAccepted)
		b := WebhookSignature("secret", "100000999", "SO-1001", WebhookStatusAccepted)
		assert.Equal(t, a, b)
	})

	t.Run("every input participates", func(t *testing.T) {
		base := WebhookSignature("secret", "100000999", "SO-1001", WebhookStatusAccepted)

		assert.NotEqual(t, base, WebhookSignature("other", "100000999", "SO-1001", WebhookStatusAccepted))
		assert.NotEqual(t, base, WebhookSignature("secret", "100001000", "SO-1001", WebhookStatusAccepted))
		assert.NotEqual(t, base, WebhookSignature("secret", "100000999", "SO-1002", WebhookStatusAccepted))
		assert.NotEqual(t, base, WebhookSignature("secret", "100000999", "SO-1001", WebhookStatusRejected))
	})
}

func TestVerifyWebhookSignature(t *testing.T) {
	sig := WebhookSignature("secret", "100000999", "SO-1001", WebhookStatusSuccess)

	assert.True(t, VerifyWebhookSignature("secret", "100000999", "SO-1001", WebhookStatusSuccess, sig))
	assert.False(t, VerifyWebhookSignature("secret", "100000999", "SO-1001", WebhookStatusSuccess, sig+"x"))
	assert.False(t, VerifyWebhookSignature("wrong", "100000999", "SO-1001", WebhookStatusSuccess, sig))
	assert.False(t, VerifyWebhookSignature("secret", "100000999", "SO-1001", WebhookStatusSuccess, ""))
}
