package ordersync

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Webhook status values pushed by the ERP. Accepted and success map to a
// successful record; rejected and failed map to a terminal failure.
const (
	WebhookStatusAccepted = "accepted"
	WebhookStatusSuccess  = "success"
	WebhookStatusRejected = "rejected"
	WebhookStatusFailed   = "failed"
)

// WebhookSignature computes the expected callback signature: base64 of
// HMAC-SHA256 over the concatenated increment id, ERP reference and status.
func WebhookSignature(secret, incrementID, erpReference, status string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(incrementID + erpReference + status))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a supplied signature in constant time
func VerifyWebhookSignature(secret, incrementID, erpReference, status, signature string) bool {
	expected := WebhookSignature(secret, incrementID, erpReference, status)
	return hmac.Equal([]byte(expected), []byte(signature))
}
