package types

// SuccessEnvelope wraps every successful API payload under a data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error shape. Code is always a stable
// machine-readable value; Message is only populated for codes whose text is
// safe to show callers.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for non-2xx responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
