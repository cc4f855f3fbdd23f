// Package types defines the JSON envelopes shared by every API response.
package types

// SuccessEnvelope wraps a successful payload under "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a typed engine error. Details carries
// caller-actionable context only, such as conflict findings or per-field
// validation messages.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under "error".
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
