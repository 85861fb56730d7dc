package ytapi

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed API call for the caller.
type ErrorKind string

const (
	// KindAPIError covers transient failures: server errors, malformed
	// responses, network problems, and exhausted rate-limit retries.
	// Safe to retry on a future scan.
	KindAPIError ErrorKind = "api_error"

	// KindQuotaExceeded means the daily quota budget is spent. The caller
	// should stop issuing further scans until the quota window resets.
	KindQuotaExceeded ErrorKind = "quota_exceeded"
)

// APIError is a classified YouTube Data API failure. It carries the
// original HTTP status and server message for diagnostics.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("youtube api %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("youtube api %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

// classify maps a terminal HTTP failure to an APIError. A forbidden
// response whose message mentions quota is the spent-budget signal;
// everything else is a transient api_error.
func classify(statusCode int, message string) *APIError {
	kind := KindAPIError
	if statusCode == http.StatusForbidden && strings.Contains(strings.ToLower(message), "quota") {
		kind = KindQuotaExceeded
	}
	return &APIError{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
	}
}

// isRateLimited reports whether a status code belongs to the rate-limit
// class that the retry loop backs off on.
func isRateLimited(statusCode int) bool {
	return statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests
}
