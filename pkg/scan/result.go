package scan

import (
	"errors"
	"time"

	"github.com/Sternrassler/yt-freshness-client/pkg/ytapi"
)

// Status is the terminal outcome for one channel in a scan.
type Status string

const (
	// StatusOK means the channel has a most-recent upload timestamp.
	StatusOK Status = "ok"

	// StatusNoUploads means the channel has no qualifying uploads or was
	// unresolvable at the batch stage (private or deleted). The two
	// cases are deliberately collapsed: both mean "nothing to show".
	StatusNoUploads Status = "no_uploads"

	// StatusAPIError marks a transient failure for this run; the channel
	// is safe to retry on a future scan.
	StatusAPIError Status = "api_error"

	// StatusQuotaExceeded means the daily quota budget is spent; the
	// caller should stop scanning until it resets.
	StatusQuotaExceeded Status = "quota_exceeded"
)

// Result is the per-channel scan output. DaysAgo is set iff Status is
// StatusOK; Error is set only for the two failure statuses.
type Result struct {
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	DaysAgo        *int       `json:"days_ago,omitempty"`
	ThresholdDays  int        `json:"threshold_days"`
	Status         Status     `json:"status"`
	Error          string     `json:"error,omitempty"`
}

// Stale reports whether the channel's last activity is at or beyond the
// staleness threshold. Only ok results can be stale.
func (r Result) Stale() bool {
	return r.Status == StatusOK && r.DaysAgo != nil && *r.DaysAgo >= r.ThresholdDays
}

// statusFromError maps a fetch failure onto a terminal status plus the
// diagnostic message carried into the result.
func statusFromError(err error) (Status, string) {
	var apiErr *ytapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Kind == ytapi.KindQuotaExceeded {
			return StatusQuotaExceeded, apiErr.Message
		}
		return StatusAPIError, apiErr.Message
	}
	return StatusAPIError, err.Error()
}
