package ytapi

import (
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
		wantKind   ErrorKind
	}{
		{
			name:       "forbidden with quota message",
			statusCode: http.StatusForbidden,
			message:    "The request cannot be completed because you have exceeded your quota.",
			wantKind:   KindQuotaExceeded,
		},
		{
			name:       "forbidden with quota message in mixed case",
			statusCode: http.StatusForbidden,
			message:    "Daily Quota exceeded for this project",
			wantKind:   KindQuotaExceeded,
		},
		{
			name:       "forbidden with unrelated message",
			statusCode: http.StatusForbidden,
			message:    "Access forbidden for this API key.",
			wantKind:   KindAPIError,
		},
		{
			name:       "too many requests mentioning quota",
			statusCode: http.StatusTooManyRequests,
			message:    "Resource has been exhausted (e.g. check quota).",
			wantKind:   KindAPIError,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			message:    "Internal error encountered.",
			wantKind:   KindAPIError,
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			message:    "Playlist not found.",
			wantKind:   KindAPIError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.statusCode, tt.message)

			if err.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", err.Kind, tt.wantKind)
			}
			if err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.statusCode)
			}
			if err.Message != tt.message {
				t.Errorf("Message = %q, want %q", err.Message, tt.message)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, true},
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		if got := isRateLimited(tt.statusCode); got != tt.want {
			t.Errorf("isRateLimited(%d) = %v, want %v", tt.statusCode, got, tt.want)
		}
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Kind: KindQuotaExceeded, StatusCode: 403, Message: "quota exceeded"}
	want := "youtube api quota_exceeded (status 403): quota exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	netErr := &APIError{Kind: KindAPIError, Message: "connection refused"}
	want = "youtube api api_error: connection refused"
	if netErr.Error() != want {
		t.Errorf("Error() = %q, want %q", netErr.Error(), want)
	}
}
