package scan

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/yt-freshness-client/pkg/cache"
	"github.com/Sternrassler/yt-freshness-client/pkg/ytapi"
)

var testNow = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

// fakeAPI is a scripted API implementation tracking every call.
type fakeAPI struct {
	mu sync.Mutex

	// playlists maps channel ID -> uploads playlist ID; absent channels
	// are omitted from batch responses.
	playlists map[string]string

	// uploads maps playlist ID -> latest upload time; a present key with
	// a nil value is an empty playlist.
	uploads map[string]*time.Time

	// batchErr fails any batch call containing the channel ID key.
	batchErr map[string]error

	// detailErr fails the detail call for a playlist ID.
	detailErr map[string]error

	batchCalls  [][]string
	detailCalls []string

	detailDelay time.Duration
	inFlight    int64
	maxInFlight int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		playlists: make(map[string]string),
		uploads:   make(map[string]*time.Time),
		batchErr:  make(map[string]error),
		detailErr: make(map[string]error),
	}
}

func (f *fakeAPI) ChannelUploadPlaylists(_ context.Context, channelIDs []string) (map[string]string, error) {
	f.mu.Lock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), channelIDs...))
	f.mu.Unlock()

	for _, id := range channelIDs {
		if err := f.batchErr[id]; err != nil {
			return nil, err
		}
	}

	resolved := make(map[string]string)
	for _, id := range channelIDs {
		if playlistID, ok := f.playlists[id]; ok {
			resolved[id] = playlistID
		}
	}
	return resolved, nil
}

func (f *fakeAPI) LatestUpload(_ context.Context, playlistID string) (*time.Time, error) {
	current := atomic.AddInt64(&f.inFlight, 1)
	for {
		observed := atomic.LoadInt64(&f.maxInFlight)
		if current <= observed || atomic.CompareAndSwapInt64(&f.maxInFlight, observed, current) {
			break
		}
	}
	if f.detailDelay > 0 {
		time.Sleep(f.detailDelay)
	}
	defer atomic.AddInt64(&f.inFlight, -1)

	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, playlistID)
	f.mu.Unlock()

	if err := f.detailErr[playlistID]; err != nil {
		return nil, err
	}
	return f.uploads[playlistID], nil
}

func (f *fakeAPI) calls() (batch, detail int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batchCalls), len(f.detailCalls)
}

// addChannel scripts a channel with an upload at the given time.
func (f *fakeAPI) addChannel(channelID, playlistID string, uploadedAt *time.Time) {
	f.playlists[channelID] = playlistID
	f.uploads[playlistID] = uploadedAt
}

func newTestScanner(api API, store cache.Store) *Scanner {
	s := New(api, store)
	s.now = func() time.Time { return testNow }
	return s
}

func daysAgo(days int) *time.Time {
	ts := testNow.Add(-time.Duration(days) * 24 * time.Hour)
	return &ts
}

func TestRun_TotalCoverage(t *testing.T) {
	api := newFakeAPI()
	api.addChannel("UCactive", "UUactive", daysAgo(10))
	api.addChannel("UCempty", "UUempty", nil)
	api.detailErr["UUbroken"] = &ytapi.APIError{Kind: ytapi.KindAPIError, StatusCode: 500, Message: "server error"}
	api.playlists["UCbroken"] = "UUbroken"
	// UCgone is not scripted: omitted from the batch response.

	scanner := newTestScanner(api, cache.NewMemory())

	ids := []string{"UCactive", "UCempty", "UCbroken", "UCgone", "UCactive"} // duplicate on purpose
	results, err := scanner.Run(context.Background(), ids, Config{}, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(results) != 4 {
		t.Errorf("got %d results, want 4 (duplicates collapse)", len(results))
	}

	wantStatus := map[string]Status{
		"UCactive": StatusOK,
		"UCempty":  StatusNoUploads,
		"UCbroken": StatusAPIError,
		"UCgone":   StatusNoUploads,
	}
	for id, want := range wantStatus {
		result, ok := results[id]
		if !ok {
			t.Errorf("missing result for %s", id)
			continue
		}
		if result.Status != want {
			t.Errorf("results[%s].Status = %s, want %s", id, result.Status, want)
		}
	}

	if results["UCactive"].DaysAgo == nil || *results["UCactive"].DaysAgo != 10 {
		t.Errorf("results[UCactive].DaysAgo = %v, want 10", results["UCactive"].DaysAgo)
	}
	if results["UCempty"].DaysAgo != nil {
		t.Errorf("DaysAgo must be nil unless status is ok, got %v", results["UCempty"].DaysAgo)
	}
	if results["UCbroken"].Error == "" {
		t.Error("failed channel should carry a diagnostic message")
	}
}

func TestRun_CacheShortCircuit(t *testing.T) {
	store := cache.NewMemory()
	_ = store.SetMany(context.Background(), map[string]cache.Entry{
		"UCfresh": {
			UploadsPlaylistID: "UUfresh",
			LastActivityAt:    daysAgo(42),
			CheckedAt:         testNow.Add(-1 * time.Hour),
		},
	})

	api := newFakeAPI()
	scanner := newTestScanner(api, store)

	results, err := scanner.Run(context.Background(), []string{"UCfresh"}, Config{}, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if batch, detail := api.calls(); batch != 0 || detail != 0 {
		t.Errorf("network calls = %d batch, %d detail; want none for a fresh entry", batch, detail)
	}

	result := results["UCfresh"]
	if result.Status != StatusOK {
		t.Errorf("Status = %s, want ok", result.Status)
	}
	if result.DaysAgo == nil || *result.DaysAgo != 42 {
		t.Errorf("DaysAgo = %v, want 42", result.DaysAgo)
	}
}

func TestRun_FreshEntryWithoutActivity(t *testing.T) {
	store := cache.NewMemory()
	_ = store.SetMany(context.Background(), map[string]cache.Entry{
		"UCempty": {
			UploadsPlaylistID: "UUempty",
			CheckedAt:         testNow.Add(-1 * time.Hour),
		},
	})

	api := newFakeAPI()
	scanner := newTestScanner(api, store)

	results, _ := scanner.Run(context.Background(), []string{"UCempty"}, Config{}, false)

	if results["UCempty"].Status != StatusNoUploads {
		t.Errorf("Status = %s, want no_uploads for cached nil activity", results["UCempty"].Status)
	}
	if batch, detail := api.calls(); batch != 0 || detail != 0 {
		t.Errorf("network calls = %d batch, %d detail; want none", batch, detail)
	}
}

func TestRun_BypassCache(t *testing.T) {
	store := cache.NewMemory()
	_ = store.SetMany(context.Background(), map[string]cache.Entry{
		"UCfresh": {
			UploadsPlaylistID: "UUfresh",
			LastActivityAt:    daysAgo(42),
			CheckedAt:         testNow.Add(-1 * time.Hour),
		},
	})

	api := newFakeAPI()
	api.addChannel("UCfresh", "UUfresh", daysAgo(3))

	scanner := newTestScanner(api, store)

	results, err := scanner.Run(context.Background(), []string{"UCfresh"}, Config{}, true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	batch, detail := api.calls()
	if detail != 1 {
		t.Errorf("detail calls = %d, want 1 with bypass", detail)
	}
	// The cached playlist handle is still reused.
	if batch != 0 {
		t.Errorf("batch calls = %d, want 0 (cached handle skips resolution)", batch)
	}
	if results["UCfresh"].DaysAgo == nil || *results["UCfresh"].DaysAgo != 3 {
		t.Errorf("DaysAgo = %v, want refreshed value 3", results["UCfresh"].DaysAgo)
	}
}

func TestRun_BatchChunking(t *testing.T) {
	api := newFakeAPI()

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("UC%03d", i)
		api.addChannel(ids[i], fmt.Sprintf("UU%03d", i), daysAgo(1))
	}

	// Channels 50-99 form the second chunk; failing any member fails the
	// whole chunk call.
	api.batchErr["UC050"] = &ytapi.APIError{Kind: ytapi.KindAPIError, StatusCode: 500, Message: "backend error"}

	scanner := newTestScanner(api, cache.NewMemory())

	results, err := scanner.Run(context.Background(), ids, Config{Concurrency: MaxConcurrency}, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	api.mu.Lock()
	sizes := make(map[int]int)
	for _, call := range api.batchCalls {
		sizes[len(call)]++
	}
	batchCallCount := len(api.batchCalls)
	api.mu.Unlock()

	if batchCallCount != 3 {
		t.Errorf("batch calls = %d, want 3", batchCallCount)
	}
	if sizes[50] != 2 || sizes[20] != 1 {
		t.Errorf("batch call sizes = %v, want two of 50 and one of 20", sizes)
	}

	var okCount, errCount int
	for _, result := range results {
		switch result.Status {
		case StatusOK:
			okCount++
		case StatusAPIError:
			errCount++
		}
	}
	if errCount != 50 {
		t.Errorf("api_error results = %d, want 50 (the failed chunk)", errCount)
	}
	if okCount != 70 {
		t.Errorf("ok results = %d, want 70 (chunks one and three unaffected)", okCount)
	}
	if len(results) != 120 {
		t.Errorf("got %d results, want 120", len(results))
	}
}

func TestRun_QuotaExceededPropagates(t *testing.T) {
	api := newFakeAPI()
	api.playlists["UCa"] = "UUa"
	api.detailErr["UUa"] = &ytapi.APIError{
		Kind:       ytapi.KindQuotaExceeded,
		StatusCode: 403,
		Message:    "quota exceeded",
	}

	scanner := newTestScanner(api, cache.NewMemory())

	results, _ := scanner.Run(context.Background(), []string{"UCa"}, Config{}, false)

	result := results["UCa"]
	if result.Status != StatusQuotaExceeded {
		t.Errorf("Status = %s, want quota_exceeded", result.Status)
	}
	if result.Error != "quota exceeded" {
		t.Errorf("Error = %q, want server message", result.Error)
	}
}

func TestRun_BatchQuotaExceeded(t *testing.T) {
	api := newFakeAPI()
	api.batchErr["UCa"] = &ytapi.APIError{
		Kind:       ytapi.KindQuotaExceeded,
		StatusCode: 403,
		Message:    "quota exceeded",
	}

	scanner := newTestScanner(api, cache.NewMemory())

	results, _ := scanner.Run(context.Background(), []string{"UCa", "UCb"}, Config{}, false)

	for _, id := range []string{"UCa", "UCb"} {
		if results[id].Status != StatusQuotaExceeded {
			t.Errorf("results[%s].Status = %s, want quota_exceeded", id, results[id].Status)
		}
	}
}

func TestRun_FetchFailureKeepsCacheEntry(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()

	stale := cache.Entry{
		UploadsPlaylistID: "UUa",
		LastActivityAt:    daysAgo(100),
		CheckedAt:         testNow.Add(-48 * time.Hour),
	}
	_ = store.SetMany(ctx, map[string]cache.Entry{"UCa": stale})

	api := newFakeAPI()
	api.detailErr["UUa"] = &ytapi.APIError{Kind: ytapi.KindAPIError, StatusCode: 500, Message: "server error"}

	scanner := newTestScanner(api, store)

	results, _ := scanner.Run(ctx, []string{"UCa"}, Config{}, false)

	if results["UCa"].Status != StatusAPIError {
		t.Errorf("Status = %s, want api_error", results["UCa"].Status)
	}

	// The stale entry survives untouched: its handle beats nothing.
	found, _ := store.GetMany(ctx, []string{"UCa"})
	entry, ok := found["UCa"]
	if !ok {
		t.Fatal("cache entry disappeared after failed fetch")
	}
	if !entry.CheckedAt.Equal(stale.CheckedAt) {
		t.Errorf("CheckedAt = %v, want unchanged %v", entry.CheckedAt, stale.CheckedAt)
	}
}

func TestRun_StaleHandleSkipsBatchResolution(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	_ = store.SetMany(ctx, map[string]cache.Entry{
		"UCa": {
			UploadsPlaylistID: "UUa",
			LastActivityAt:    daysAgo(100),
			CheckedAt:         testNow.Add(-48 * time.Hour), // stale for 24h TTL
		},
	})

	api := newFakeAPI()
	api.addChannel("UCa", "UUa", daysAgo(2))

	scanner := newTestScanner(api, store)

	results, _ := scanner.Run(ctx, []string{"UCa"}, Config{}, false)

	batch, detail := api.calls()
	if batch != 0 {
		t.Errorf("batch calls = %d, want 0 (stale entry still supplies the handle)", batch)
	}
	if detail != 1 {
		t.Errorf("detail calls = %d, want 1", detail)
	}
	if results["UCa"].DaysAgo == nil || *results["UCa"].DaysAgo != 2 {
		t.Errorf("DaysAgo = %v, want 2", results["UCa"].DaysAgo)
	}
}

func TestRun_Idempotence(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()

	api := newFakeAPI()
	api.addChannel("UCa", "UUa", daysAgo(5))
	api.addChannel("UCb", "UUb", nil)

	scanner := newTestScanner(api, store)
	cfg := Config{}

	first, err := scanner.Run(ctx, []string{"UCa", "UCb"}, cfg, false)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	batchAfterFirst, detailAfterFirst := api.calls()

	second, err := scanner.Run(ctx, []string{"UCa", "UCb"}, cfg, false)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	batch, detail := api.calls()
	if batch != batchAfterFirst || detail != detailAfterFirst {
		t.Errorf("second run issued network calls: batch %d->%d, detail %d->%d",
			batchAfterFirst, batch, detailAfterFirst, detail)
	}

	for id, want := range first {
		got, ok := second[id]
		if !ok {
			t.Errorf("second run missing result for %s", id)
			continue
		}
		if got.Status != want.Status {
			t.Errorf("results[%s].Status changed %s -> %s", id, want.Status, got.Status)
		}
		switch {
		case got.DaysAgo == nil && want.DaysAgo == nil:
		case got.DaysAgo == nil || want.DaysAgo == nil || *got.DaysAgo != *want.DaysAgo:
			t.Errorf("results[%s].DaysAgo changed %v -> %v", id, want.DaysAgo, got.DaysAgo)
		}
	}
}

func TestRun_EmptyPlaylistCachedAsNoUploads(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()

	api := newFakeAPI()
	api.addChannel("UCempty", "UUempty", nil)

	scanner := newTestScanner(api, store)

	results, _ := scanner.Run(ctx, []string{"UCempty"}, Config{}, false)

	if results["UCempty"].Status != StatusNoUploads {
		t.Errorf("Status = %s, want no_uploads", results["UCempty"].Status)
	}

	// The write-back must keep the handle so the next run skips batch
	// resolution, with nil activity recorded.
	found, _ := store.GetMany(ctx, []string{"UCempty"})
	entry, ok := found["UCempty"]
	if !ok {
		t.Fatal("expected cache entry after successful fetch")
	}
	if entry.UploadsPlaylistID != "UUempty" {
		t.Errorf("UploadsPlaylistID = %q, want UUempty", entry.UploadsPlaylistID)
	}
	if entry.LastActivityAt != nil {
		t.Errorf("LastActivityAt = %v, want nil", entry.LastActivityAt)
	}
	if !entry.CheckedAt.Equal(testNow) {
		t.Errorf("CheckedAt = %v, want %v", entry.CheckedAt, testNow)
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	const concurrency = 3

	api := newFakeAPI()
	api.detailDelay = 10 * time.Millisecond
	for i := 0; i < 12; i++ {
		api.addChannel(fmt.Sprintf("UC%02d", i), fmt.Sprintf("UU%02d", i), daysAgo(1))
	}

	scanner := newTestScanner(api, cache.NewMemory())

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("UC%02d", i)
	}

	_, err := scanner.Run(context.Background(), ids, Config{Concurrency: concurrency}, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if max := atomic.LoadInt64(&api.maxInFlight); max > concurrency {
		t.Errorf("max in-flight detail fetches = %d, want <= %d", max, concurrency)
	}
}

func TestRun_NilStore(t *testing.T) {
	api := newFakeAPI()
	api.addChannel("UCa", "UUa", daysAgo(1))

	scanner := newTestScanner(api, nil)

	results, err := scanner.Run(context.Background(), []string{"UCa"}, Config{}, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results["UCa"].Status != StatusOK {
		t.Errorf("Status = %s, want ok", results["UCa"].Status)
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "zero config takes defaults",
			in:   Config{},
			want: Config{ThresholdDays: 365, CacheTTLHours: 24, Concurrency: 6},
		},
		{
			name: "explicit values kept",
			in:   Config{ThresholdDays: 30, CacheTTLHours: 6, Concurrency: 2},
			want: Config{ThresholdDays: 30, CacheTTLHours: 6, Concurrency: 2},
		},
		{
			name: "concurrency clamped to maximum",
			in:   Config{Concurrency: 100},
			want: Config{ThresholdDays: 365, CacheTTLHours: 24, Concurrency: 20},
		},
		{
			name: "negative values take defaults",
			in:   Config{ThresholdDays: -1, CacheTTLHours: -1, Concurrency: -1},
			want: Config{ThresholdDays: 365, CacheTTLHours: 24, Concurrency: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResult_Stale(t *testing.T) {
	ten := 10
	four := 400

	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{
			name:   "recent upload not stale",
			result: Result{Status: StatusOK, DaysAgo: &ten, ThresholdDays: 365},
			want:   false,
		},
		{
			name:   "old upload stale",
			result: Result{Status: StatusOK, DaysAgo: &four, ThresholdDays: 365},
			want:   true,
		},
		{
			name:   "no uploads never stale",
			result: Result{Status: StatusNoUploads, ThresholdDays: 365},
			want:   false,
		},
		{
			name:   "error never stale",
			result: Result{Status: StatusAPIError, ThresholdDays: 365},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Stale(); got != tt.want {
				t.Errorf("Stale() = %v, want %v", got, tt.want)
			}
		})
	}
}
