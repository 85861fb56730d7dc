// Package ytapi provides a cost-aware YouTube Data API v3 client with
// rate-limit retry, error classification, and quota metering.
package ytapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the YouTube Data API v3 root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// BatchSize is the maximum number of channel IDs accepted by a single
	// channels.list call.
	BatchSize = 50

	// validationChannelID is a known-good public channel (Google
	// Developers) used to probe whether an API key is accepted.
	validationChannelID = "UC_x5XG1OV2P6uZZ5FSM9Ttw"
)

// Quota units charged per call. Both endpoints used here are list calls
// at the cheap flat rate; the search endpoint (100 units) must never be
// used for this workload.
const costPerCall = 1

// Meter records quota units consumed by API calls. Implementations must
// be safe for concurrent use. See the quota package.
type Meter interface {
	Charge(ctx context.Context, units int)
}

// Config holds the client configuration.
type Config struct {
	// APIKey is the YouTube Data API credential (REQUIRED).
	APIKey string

	// BaseURL overrides the API root (for tests). Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout for a single HTTP attempt. Defaults to 30s.
	Timeout time.Duration

	// Meter records quota consumption. Optional.
	Meter Meter
}

// Client is the YouTube Data API client. All calls retry on rate-limit
// responses with exponential backoff before failing with a classified
// *APIError.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	meter      Meter
	logger     zerolog.Logger

	// sleep is swapped out in tests to observe backoff delays.
	sleep func(time.Duration)
}

// New creates a new client. A missing API key is a precondition failure
// reported here, before any network call is attempted.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		meter:      cfg.Meter,
		logger:     log.With().Str("component", "ytapi").Logger(),
		sleep:      time.Sleep,
	}, nil
}

// ChannelUploadPlaylists resolves up to BatchSize channel IDs to their
// uploads playlist IDs in a single channels.list call. Channels that are
// private, deleted, or otherwise inaccessible are simply absent from the
// returned map.
func (c *Client) ChannelUploadPlaylists(ctx context.Context, channelIDs []string) (map[string]string, error) {
	if len(channelIDs) == 0 {
		return map[string]string{}, nil
	}
	if len(channelIDs) > BatchSize {
		return nil, fmt.Errorf("at most %d channel ids per batch call, got %d", BatchSize, len(channelIDs))
	}

	params := url.Values{
		"part":       []string{"contentDetails"},
		"id":         []string{strings.Join(channelIDs, ",")},
		"maxResults": []string{fmt.Sprintf("%d", BatchSize)},
	}

	var resp channelListResponse
	if err := c.getJSON(ctx, "/channels", params, &resp, maxRetries); err != nil {
		return nil, err
	}

	playlists := make(map[string]string, len(resp.Items))
	for _, item := range resp.Items {
		if uploads := item.ContentDetails.RelatedPlaylists.Uploads; uploads != "" {
			playlists[item.ID] = uploads
		}
	}

	c.logger.Debug().
		Int("requested", len(channelIDs)).
		Int("resolved", len(playlists)).
		Msg("Resolved upload playlists")

	return playlists, nil
}

// LatestUpload fetches the single most recent item of an uploads
// playlist and returns its publish timestamp. A nil time with a nil
// error means the playlist has no items.
func (c *Client) LatestUpload(ctx context.Context, playlistID string) (*time.Time, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("playlist id is required")
	}

	params := url.Values{
		"part":       []string{"snippet,contentDetails"},
		"playlistId": []string{playlistID},
		"maxResults": []string{"1"},
	}

	var resp playlistItemsResponse
	if err := c.getJSON(ctx, "/playlistItems", params, &resp, maxRetries); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	// Prefer the video publish time over the time the item was added to
	// the playlist; both are usually equal for uploads playlists.
	item := resp.Items[0]
	raw := item.ContentDetails.VideoPublishedAt
	if raw == "" {
		raw = item.Snippet.PublishedAt
	}
	if raw == "" {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &APIError{
			Kind:    KindAPIError,
			Message: fmt.Sprintf("parse publish timestamp %q: %v", raw, err),
		}
	}

	return &ts, nil
}

// ValidateKey probes the credential with one minimal channels.list call
// against a known-good channel. It performs a single attempt so that a
// quota-class response surfaces as the verdict instead of being masked
// by retries. A nil error means the key is accepted.
func (c *Client) ValidateKey(ctx context.Context) error {
	params := url.Values{
		"part": []string{"id"},
		"id":   []string{validationChannelID},
	}

	var resp channelListResponse
	return c.getJSON(ctx, "/channels", params, &resp, 0)
}

// getJSON performs one GET against an API endpoint, retrying rate-limit
// responses up to the given retry budget, and unmarshals the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any, retries int) error {
	start := time.Now()
	defer func() {
		ytRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	params.Set("key", c.apiKey)
	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		statusCode, body, err := c.roundTrip(ctx, reqURL)
		if c.meter != nil {
			c.meter.Charge(ctx, costPerCall)
		}

		if err != nil {
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			ytRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			ytErrorsTotal.WithLabelValues(string(KindAPIError)).Inc()
			return &APIError{Kind: KindAPIError, Message: err.Error()}
		}

		ytRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", statusCode)).Inc()

		if statusCode >= 200 && statusCode < 300 {
			if attempt > 0 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			if err := json.Unmarshal(body, out); err != nil {
				ytErrorsTotal.WithLabelValues(string(KindAPIError)).Inc()
				return &APIError{
					Kind:       KindAPIError,
					StatusCode: statusCode,
					Message:    fmt.Sprintf("decode response: %v", err),
				}
			}
			return nil
		}

		message := parseErrorMessage(body, statusCode)

		if isRateLimited(statusCode) && attempt < retries {
			ytRetriesTotal.WithLabelValues(endpoint).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", statusCode).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Rate limited - retrying after backoff")
			c.sleep(backoff)
			backoff *= 2
			continue
		}

		if isRateLimited(statusCode) && retries > 0 {
			ytRetryExhaustedTotal.WithLabelValues(endpoint).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", statusCode).
				Int("attempts", attempt+1).
				Msg("Retry attempts exhausted")
		}

		apiErr := classify(statusCode, message)
		ytErrorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", statusCode).
			Str("kind", string(apiErr.Kind)).
			Msg("YouTube API request error")
		return apiErr
	}
}

// roundTrip executes a single HTTP attempt and returns status and body.
func (c *Client) roundTrip(ctx context.Context, reqURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// parseErrorMessage extracts the server-supplied message from an API
// error body, falling back to the HTTP status text.
func parseErrorMessage(body []byte, statusCode int) string {
	var errResp apiErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return http.StatusText(statusCode)
}
