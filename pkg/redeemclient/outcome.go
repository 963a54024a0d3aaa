package redeemclient

import "net/http"

// Outcome classifies a refused submission for display and analytics
type Outcome string

const (
	OutcomeTooFar             Outcome = "too_far"
	OutcomeInvalidInput       Outcome = "invalid_input"
	OutcomeServiceUnavailable Outcome = "service_unavailable"
	OutcomeRateLimited        Outcome = "rate_limited"
	OutcomeServerError        Outcome = "server_error"
	OutcomeUnknown            Outcome = "unknown"
	OutcomeNetworkError       Outcome = "network_error"
)

// Classify maps a non-200 response status to an outcome
func Classify(status int) Outcome {
	switch {
	case status == http.StatusForbidden:
		return OutcomeTooFar
	case status == http.StatusBadRequest:
		return OutcomeInvalidInput
	case status == http.StatusServiceUnavailable:
		return OutcomeServiceUnavailable
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status >= 500:
		return OutcomeServerError
	default:
		return OutcomeUnknown
	}
}
