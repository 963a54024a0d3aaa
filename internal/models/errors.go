package models

// ErrorResponse is the body of every non-2xx JSON response.
// Details is only set for per-field validation failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
