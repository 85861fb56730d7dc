package cache

import "time"

// Entry is the per-channel cache record. It keeps just enough state to
// rebuild a scan result: the resolved uploads playlist ID, the last
// upload timestamp, and when we last checked.
type Entry struct {
	// UploadsPlaylistID is the channel's uploads playlist, resolved once
	// per channel and assumed stable for the channel's lifetime. A stale
	// entry still contributes this handle so a re-fetch can skip batch
	// resolution.
	UploadsPlaylistID string `json:"uploads_playlist_id,omitempty"`

	// LastActivityAt is the publish time of the most recent upload. Nil
	// means the channel is known to have no uploads.
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`

	// CheckedAt is when the detail lookup last succeeded.
	CheckedAt time.Time `json:"checked_at"`
}

// Fresh reports whether the entry is younger than the TTL at the given
// reference time. Stale entries require a re-fetch.
func (e Entry) Fresh(ttlHours int, now time.Time) bool {
	return now.Sub(e.CheckedAt) < time.Duration(ttlHours)*time.Hour
}
