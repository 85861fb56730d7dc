// Package testutil provides a configurable mock YouTube Data API server
// for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockTube is a mock YouTube Data API v3 server. Handlers are keyed by
// endpoint path ("/channels", "/playlistItems").
type MockTube struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	requestCount int
	pathCounts   map[string]int
	lastQueries  map[string]string
}

// NewMockTube creates a started mock server. The default handler returns
// an empty item list.
func NewMockTube() *MockTube {
	mock := &MockTube{
		handlers:    make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pathCounts:  make(map[string]int),
		lastQueries: make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastQueries[r.URL.Path] = r.URL.RawQuery
		handler := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if handler != nil {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"items": []}`)
	}))

	return mock
}

// URL returns the mock server base URL, usable as the client's BaseURL.
func (m *MockTube) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTube) Close() {
	m.server.Close()
}

// Reset clears tracking counters and handlers.
func (m *MockTube) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastQueries = make(map[string]string)
	m.handlers = make(map[string]func(w http.ResponseWriter, r *http.Request))
}

// SetHandler installs a custom handler for a path.
func (m *MockTube) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse installs a fixed response for a path.
func (m *MockTube) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			fmt.Fprint(w, resp.Body)
		}
	})
}

// RequestCount returns the total number of requests served.
func (m *MockTube) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests served for one path.
func (m *MockTube) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastQuery returns the raw query string of the most recent request to a
// path.
func (m *MockTube) LastQuery(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQueries[path]
}

// ChannelListBody builds a channels.list response mapping channel IDs to
// uploads playlist IDs. Order follows the ids slice so responses are
// deterministic.
func ChannelListBody(ids []string, uploads map[string]string) string {
	type relatedPlaylists struct {
		Uploads string `json:"uploads"`
	}
	type contentDetails struct {
		RelatedPlaylists relatedPlaylists `json:"relatedPlaylists"`
	}
	type item struct {
		ID             string         `json:"id"`
		ContentDetails contentDetails `json:"contentDetails"`
	}

	items := []item{}
	for _, id := range ids {
		playlistID, ok := uploads[id]
		if !ok {
			continue
		}
		items = append(items, item{
			ID:             id,
			ContentDetails: contentDetails{RelatedPlaylists: relatedPlaylists{Uploads: playlistID}},
		})
	}

	body, _ := json.Marshal(map[string]any{"items": items})
	return string(body)
}

// PlaylistItemsBody builds a playlistItems.list response with one item.
// Empty strings omit the corresponding timestamp field; pass both empty
// for an item with no usable timestamps.
func PlaylistItemsBody(videoPublishedAt, snippetPublishedAt string) string {
	item := map[string]any{}
	if snippetPublishedAt != "" {
		item["snippet"] = map[string]any{"publishedAt": snippetPublishedAt}
	}
	if videoPublishedAt != "" {
		item["contentDetails"] = map[string]any{"videoPublishedAt": videoPublishedAt}
	}

	body, _ := json.Marshal(map[string]any{"items": []any{item}})
	return string(body)
}

// EmptyPlaylistBody is a playlistItems.list response with zero items.
const EmptyPlaylistBody = `{"items": []}`

// ErrorBody builds an API error response in the YouTube envelope.
func ErrorBody(code int, message string) string {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
	return string(body)
}

// NewQuotaExceededResponse is the 403 response for a spent daily budget.
func NewQuotaExceededResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       ErrorBody(403, "The request cannot be completed because you have exceeded your quota."),
	}
}

// NewRateLimitResponse is a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       ErrorBody(429, "Resource has been exhausted (e.g. check quota)."),
	}
}

// NewForbiddenResponse is a 403 response unrelated to quota.
func NewForbiddenResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       ErrorBody(403, "Access forbidden for this API key."),
	}
}

// NewServerErrorResponse is a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       ErrorBody(500, "Internal error encountered."),
	}
}

// NewFlakyHandler fails with the given response a number of times, then
// succeeds with the body.
func NewFlakyHandler(failures int, fail MockResponse, body string) func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	var calls int
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		failing := calls <= failures
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if failing {
			w.WriteHeader(fail.StatusCode)
			fmt.Fprint(w, fail.Body)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	}
}

// ContainsID reports whether a comma-joined id query parameter includes
// the given channel ID.
func ContainsID(rawQuery, channelID string) bool {
	for _, part := range strings.Split(rawQuery, "&") {
		if !strings.HasPrefix(part, "id=") {
			continue
		}
		ids := strings.TrimPrefix(part, "id=")
		for _, id := range strings.Split(ids, "%2C") {
			if id == channelID {
				return true
			}
		}
	}
	return false
}
