package providers

import "fmt"

// FailoverReason classifies why a model request failed, mirroring the
// provider error taxonomy so callers can decide whether to retry against
// the same provider or fail over to another one.
type FailoverReason string

const (
	ReasonRateLimit       FailoverReason = "rate_limit"
	ReasonAuth            FailoverReason = "auth"
	ReasonTimeout         FailoverReason = "timeout"
	ReasonServerError     FailoverReason = "server_error"
	ReasonInvalidRequest  FailoverReason = "invalid_request"
	ReasonContentFiltered FailoverReason = "content_filter"
	ReasonUnknown         FailoverReason = "unknown"
)

// IsRetryable reports whether a request failing for this reason is worth
// retrying against the same provider.
func (r FailoverReason) IsRetryable() bool {
	switch r {
	case ReasonRateLimit, ReasonTimeout, ReasonServerError:
		return true
	default:
		return false
	}
}

// ShouldFailover reports whether a request failing for this reason
// should be retried against a different provider rather than the same one.
func (r FailoverReason) ShouldFailover() bool {
	switch r {
	case ReasonAuth, ReasonServerError, ReasonRateLimit:
		return true
	default:
		return false
	}
}

// ModelError wraps a failed request to a model backend with enough
// context to decide on retry/failover without inspecting the SDK's own
// error type.
type ModelError struct {
	Provider string
	Model    string
	Reason   FailoverReason
	Cause    error
}

func (e *ModelError) Error() string {
	if e.Reason == "" {
		e.Reason = ReasonUnknown
	}
	return fmt.Sprintf("providers: %s request failed (%s): %v", e.Provider, e.Reason, e.Cause)
}

func (e *ModelError) Unwrap() error { return e.Cause }
