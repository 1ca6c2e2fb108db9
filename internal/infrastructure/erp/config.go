package erp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Config holds configuration for the outbound ERP connection
type Config struct {
	// BaseURL is the root URL of the ERP HTTP API
	BaseURL string
	// APIKey is sent as X-API-KEY when present
	APIKey string
	// HMACSecret signs request bodies when present; requests go out unsigned
	// without it
	HMACSecret string
	// TimeoutSeconds is the HTTP request timeout for sync calls
	TimeoutSeconds int
}

// ErrConfigMissingBaseURL indicates the ERP endpoint was never configured
var ErrConfigMissingBaseURL = errors.New("erp: base URL is required")

// NewConfig creates an ERP connection configuration with defaults
func NewConfig(baseURL string) *Config {
	return &Config{
		BaseURL:        baseURL,
		TimeoutSeconds: 30,
	}
}

// Validate validates the configuration and applies defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Sign computes the request signature: base64 of HMAC-SHA256 over the
// serialized body using the shared secret. Empty when no secret is set.
func (c *Config) Sign(body []byte) string {
	if c.HMACSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(c.HMACSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
