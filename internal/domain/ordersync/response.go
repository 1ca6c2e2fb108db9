package ordersync

import "encoding/json"

// ERPResponse wraps a raw HTTP status/body pair from the ERP and classifies
// the outcome. A status code of zero means no response was received at all
// (network failure, timeout); the body then carries the transport error text.
type ERPResponse struct {
	statusCode int
	body       string
	data       map[string]interface{}
}

// NewERPResponse constructs a response from a status code and raw body. The
// body is parsed as JSON; unparseable bodies are wrapped as {"raw": body}.
func NewERPResponse(statusCode int, body string) *ERPResponse {
	r := &ERPResponse{statusCode: statusCode, body: body}
	if err := json.Unmarshal([]byte(body), &r.data); err != nil || r.data == nil {
		r.data = map[string]interface{}{"raw": body}
	}
	return r
}

// StatusCode returns the HTTP status code, zero for transport failures
func (r *ERPResponse) StatusCode() int {
	return r.statusCode
}

// Body returns the raw response body
func (r *ERPResponse) Body() string {
	return r.body
}

// Data returns the parsed response body
func (r *ERPResponse) Data() map[string]interface{} {
	return r.data
}

// IsSuccessful reports whether the ERP accepted the request
func (r *ERPResponse) IsSuccessful() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// ERPID extracts the external reference assigned by the ERP, trying
// erp_reference, then erp_id, then id. Empty when none is present.
func (r *ERPResponse) ERPID() string {
	for _, field := range []string{"erp_reference", "erp_id", "id"} {
		if v, ok := r.data[field]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// ErrorMessage returns the failure text for unsuccessful responses, trying
// the error and message fields before falling back to the raw body. Empty
// for successful responses.
func (r *ERPResponse) ErrorMessage() string {
	if r.IsSuccessful() {
		return ""
	}
	for _, field := range []string{"error", "message"} {
		if v, ok := r.data[field]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return r.body
}

// IsRetryable classifies the outcome for the retry policy: server errors and
// rate limiting are retryable, any other client error is terminal, and a
// zero status code (no response received) is retryable.
func (r *ERPResponse) IsRetryable() bool {
	if r.statusCode == 0 {
		return true
	}
	if r.statusCode == 429 {
		return true
	}
	if r.statusCode >= 500 && r.statusCode < 600 {
		return true
	}
	return false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return ""
	}
}
