package notion

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrTokenRequired = errors.New("notion: API token is required")

// StatusError reports a non-2xx upstream response with the machine-readable
// code and message the API returned.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "notion: unknown status error"
	}
	if e.Code != "" {
		return fmt.Sprintf("notion: upstream status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: upstream status %d", e.Status)
}

// IsNotFound reports whether the error is an upstream 404. Callers must not
// retry not-found results as if they were transient failures.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusNotFound
	}
	return false
}

// isRetryable reports whether a fresh attempt against the upstream may succeed.
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Status == http.StatusTooManyRequests:
			return true
		case statusErr.Status >= 500:
			return true
		default:
			return false
		}
	}
	// Transport-level failures (timeouts, resets) are worth another attempt.
	return true
}
