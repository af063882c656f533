package jikan_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/animeshelf/cache"
	"github.com/adamwoolhether/animeshelf/jikan"
	"github.com/adamwoolhether/animeshelf/throttle"
)

const listBody = `{
	"data": [
		{"mal_id": 1, "title": "Frieren", "score": 9.3, "synopsis": "An elf mage.", "episodes": 28, "status": "Finished Airing",
		 "images": {"jpg": {"image_url": "s.jpg", "large_image_url": "l.jpg"}},
		 "aired": {"from": "2023-09-29T00:00:00+00:00", "to": null},
		 "genres": [{"mal_id": 2, "name": "Adventure"}], "themes": [], "studios": [{"mal_id": 11, "name": "Madhouse"}]}
	],
	"pagination": {"last_visible_page": 3, "has_next_page": true}
}`

const detailBody = `{"data": {"mal_id": 5114, "title": "Fullmetal Alchemist: Brotherhood", "score": 9.1, "episodes": null, "aired": {"from": "2009-04-05T00:00:00+00:00", "to": "2010-07-04T00:00:00+00:00"}}}`

func newQueue(t *testing.T, cooldown time.Duration) *throttle.Queue {
	t.Helper()

	q, err := throttle.NewQueue(cooldown)
	if err != nil {
		t.Fatalf("creating queue: %v", err)
	}

	return q
}

func newClient(t *testing.T, ts *httptest.Server, cooldown time.Duration, opts ...jikan.Option) *jikan.Client {
	t.Helper()

	c, err := jikan.New(newQueue(t, cooldown), append([]jikan.Option{jikan.WithBaseURL(ts.URL + "/v4")}, opts...)...)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	return c
}

func TestNew_Validation(t *testing.T) {
	q := newQueue(t, time.Millisecond)

	testCases := []struct {
		name   string
		queue  *throttle.Queue
		opts   []jikan.Option
		expErr error
	}{
		{name: "Nil queue", queue: nil, expErr: jikan.ErrNilQueue},
		{name: "Relative base url", queue: q, opts: []jikan.Option{jikan.WithBaseURL("/v4")}},
		{name: "Zero rate limit", queue: q, opts: []jikan.Option{jikan.WithRateLimit(throttle.Limit{})}, expErr: throttle.ErrMustNotBeZero},
		{name: "Negative timeout", queue: q, opts: []jikan.Option{jikan.WithTimeout(-time.Second)}},
		{name: "Nil cache", queue: q, opts: []jikan.Option{jikan.WithCache(nil, time.Minute)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := jikan.New(tc.queue, tc.opts...)
			if err == nil {
				t.Fatal("exp an error, got nil")
			}
			if c != nil {
				t.Error("exp nil client on error")
			}
			if tc.expErr != nil && !errors.Is(err, tc.expErr) {
				t.Errorf("exp %v, got %v", tc.expErr, err)
			}
		})
	}
}

func TestClient_ListEndpoints(t *testing.T) {
	testCases := []struct {
		name     string
		call     func(c *jikan.Client, ctx context.Context) (jikan.AnimeList, error)
		expPath  string
		expLimit string
		expPage  string
	}{
		{
			name:     "Recent",
			call:     func(c *jikan.Client, ctx context.Context) (jikan.AnimeList, error) { return c.Recent(ctx, 2) },
			expPath:  "/v4/seasons/now",
			expLimit: "24",
			expPage:  "2",
		},
		{
			name:     "Upcoming",
			call:     func(c *jikan.Client, ctx context.Context) (jikan.AnimeList, error) { return c.Upcoming(ctx, 1) },
			expPath:  "/v4/seasons/upcoming",
			expLimit: "12",
			expPage:  "1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if r.URL.Path != tc.expPath || q.Get("page") != tc.expPage || q.Get("limit") != tc.expLimit || q.Get("sfw") != "true" {
					t.Errorf("unexpected request: %s", r.URL.String())
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, listBody)
			}))
			defer ts.Close()

			c := newClient(t, ts, time.Millisecond)

			got, err := tc.call(c, t.Context())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			episodes := 28
			exp := jikan.AnimeList{
				Data: []jikan.Anime{{
					MalID:    1,
					Title:    "Frieren",
					Score:    9.3,
					Synopsis: "An elf mage.",
					Episodes: &episodes,
					Status:   "Finished Airing",
					Aired:    jikan.Aired{From: "2023-09-29T00:00:00+00:00"},
					Genres:   []jikan.Entity{{MalID: 2, Name: "Adventure"}},
					Themes:   []jikan.Entity{},
					Studios:  []jikan.Entity{{MalID: 11, Name: "Madhouse"}},
				}},
				Pagination: jikan.Pagination{LastVisiblePage: 3, HasNextPage: true},
			}
			exp.Data[0].Images.JPG.ImageURL = "s.jpg"
			exp.Data[0].Images.JPG.LargeImageURL = "l.jpg"

			if diff := cmp.Diff(exp, got); diff != "" {
				t.Errorf("list mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_ByID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/anime/5114/full" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, detailBody)
	}))
	defer ts.Close()

	c := newClient(t, ts, time.Millisecond)

	a, err := c.ByID(t.Context(), 5114)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.MalID != 5114 || a.Title != "Fullmetal Alchemist: Brotherhood" {
		t.Errorf("unexpected anime: %+v", a)
	}
	if a.Episodes != nil {
		t.Errorf("exp nil episodes, got %d", *a.Episodes)
	}
	if a.Aired.To == nil || *a.Aired.To != "2010-07-04T00:00:00+00:00" {
		t.Errorf("unexpected aired.to: %v", a.Aired.To)
	}
}

func TestClient_InvalidArguments(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	c := newClient(t, ts, time.Millisecond)

	if _, err := c.Recent(t.Context(), 0); !errors.Is(err, jikan.ErrInvalidPage) {
		t.Errorf("recent: exp ErrInvalidPage, got %v", err)
	}
	if _, err := c.Upcoming(t.Context(), -1); !errors.Is(err, jikan.ErrInvalidPage) {
		t.Errorf("upcoming: exp ErrInvalidPage, got %v", err)
	}
	if _, err := c.ByID(t.Context(), 0); !errors.Is(err, jikan.ErrInvalidID) {
		t.Errorf("by id: exp ErrInvalidID, got %v", err)
	}

	if hits.Load() != 0 {
		t.Errorf("invalid arguments should not reach the server, got %d hits", hits.Load())
	}
}

func TestClient_UnexpectedStatus(t *testing.T) {
	testCases := []struct {
		name   string
		code   int
		expErr error
	}{
		{name: "Not found", code: http.StatusNotFound, expErr: jikan.ErrNotFound},
		{name: "Rate limited", code: http.StatusTooManyRequests, expErr: jikan.ErrRateLimited},
		{name: "Server error", code: http.StatusInternalServerError, expErr: jikan.ErrUnexpectedStatusCode},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				fmt.Fprint(w, `{"status":`+fmt.Sprint(tc.code)+`}`)
			}))
			defer ts.Close()

			c := newClient(t, ts, time.Millisecond)

			_, err := c.ByID(t.Context(), 1)
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp %v, got %v", tc.expErr, err)
			}
			if !errors.Is(err, jikan.ErrUnexpectedStatusCode) {
				t.Errorf("exp error to wrap ErrUnexpectedStatusCode, got %v", err)
			}

			var statusErr *jikan.UnexpectedStatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("exp *UnexpectedStatusError, got %T", err)
			}
			if statusErr.StatusCode != tc.code {
				t.Errorf("exp status %d, got %d", tc.code, statusErr.StatusCode)
			}
			if statusErr.Endpoint != "by_id" {
				t.Errorf("exp endpoint by_id, got %s", statusErr.Endpoint)
			}
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [`)
	}))
	defer ts.Close()

	c := newClient(t, ts, time.Millisecond)

	if _, err := c.Recent(t.Context(), 1); err == nil {
		t.Fatal("exp decode error, got nil")
	}
}

func TestClient_WithUserAgent(t *testing.T) {
	const expectedUA = "animeshelf-test/1.0"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != expectedUA {
			t.Errorf("exp User-Agent %q, got %q", expectedUA, ua)
		}
		fmt.Fprint(w, listBody)
	}))
	defer ts.Close()

	c := newClient(t, ts, time.Millisecond,
		jikan.WithUserAgent(expectedUA),
		jikan.WithRateLimit(throttle.Limit{Requests: 60, Per: time.Minute, Burst: 60}),
	)

	if _, err := c.Upcoming(t.Context(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_LeavesCallerClientUntouched(t *testing.T) {
	var hits atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, listBody)
	}))
	defer ts.Close()

	shared := &http.Client{}
	limit := throttle.Limit{Requests: 60, Per: time.Minute, Burst: 60}

	for range 2 {
		c := newClient(t, ts, time.Millisecond,
			jikan.WithHTTPClient(shared),
			jikan.WithTimeout(time.Second),
			jikan.WithRateLimit(limit),
		)

		if _, err := c.Recent(t.Context(), 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if shared.Transport != nil {
		t.Errorf("exp caller transport to stay nil, got %T", shared.Transport)
	}
	if shared.Timeout != 0 {
		t.Errorf("exp caller timeout to stay 0, got %v", shared.Timeout)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("exp 2 upstream calls, got %d", got)
	}
}

func TestClient_CacheHit(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, listBody)
	}))
	defer ts.Close()

	store, err := cache.NewMemory(16)
	if err != nil {
		t.Fatal(err)
	}

	c := newClient(t, ts, time.Millisecond, jikan.WithCache(store, time.Minute))

	first, err := c.Recent(t.Context(), 1)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := c.Recent(t.Context(), 1)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("exp a single upstream hit, got %d", hits.Load())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached page differs (-first +second):\n%s", diff)
	}

	// A different page is a different key.
	if _, err := c.Recent(t.Context(), 2); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("exp 2 upstream hits, got %d", hits.Load())
	}
}

func TestClient_FailuresAreNotCached(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, listBody)
	}))
	defer ts.Close()

	store, _ := cache.NewMemory(4)
	c := newClient(t, ts, time.Millisecond, jikan.WithCache(store, time.Minute))

	if _, err := c.Recent(t.Context(), 1); !errors.Is(err, jikan.ErrUnexpectedStatusCode) {
		t.Fatalf("exp status error, got %v", err)
	}
	if _, err := c.Recent(t.Context(), 1); err != nil {
		t.Fatalf("exp retry by caller to succeed, got %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("exp only the success to be cached, got %d entries", store.Len())
	}
}

func TestClient_CoalescesIdenticalRequests(t *testing.T) {
	const callers = 5

	var hits atomic.Int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		fmt.Fprint(w, listBody)
	}))
	defer ts.Close()

	c := newClient(t, ts, time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Recent(t.Context(), 1)
		}()
	}

	<-arrived
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: unexpected error: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("exp identical requests to share one upstream call, got %d", hits.Load())
	}
}

func TestClient_RequestsAreSpacedByQueue(t *testing.T) {
	const cooldown = 50 * time.Millisecond

	var mu sync.Mutex
	var arrivals []time.Time

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()

		if r.URL.Path == "/v4/anime/7/full" {
			fmt.Fprint(w, detailBody)
			return
		}
		fmt.Fprint(w, listBody)
	}))
	defer ts.Close()

	c := newClient(t, ts, cooldown)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); _, _ = c.Recent(t.Context(), 1) }()
	go func() { defer wg.Done(); _, _ = c.Upcoming(t.Context(), 1) }()
	go func() { defer wg.Done(); _, _ = c.ByID(t.Context(), 7) }()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	if len(arrivals) != 3 {
		t.Fatalf("exp 3 upstream calls, got %d", len(arrivals))
	}

	slices.SortFunc(arrivals, func(a, b time.Time) int { return a.Compare(b) })
	for i := 1; i < len(arrivals); i++ {
		if gap := arrivals[i].Sub(arrivals[i-1]); gap < cooldown {
			t.Errorf("calls %d and %d were %v apart, want >= %v", i-1, i, gap, cooldown)
		}
	}
}

func TestClient_ContextEndsWhileQueued(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listBody)
	}))
	defer ts.Close()

	q := newQueue(t, time.Millisecond)
	c, err := jikan.New(q, jikan.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatal(err)
	}

	// Occupy the queue so the client's request has to wait.
	release := make(chan struct{})
	blocker := throttle.Schedule(t.Context(), q, func(ctx context.Context) (struct{}, error) {
		<-release
		return struct{}{}, nil
	})
	defer func() {
		close(release)
		_, _ = blocker.Wait()
	}()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Recent(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("exp context.DeadlineExceeded, got %v", err)
	}
}

func TestClient_SaveCover(t *testing.T) {
	img := []byte("jpeg-bytes")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/l.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(img)
	}))
	defer ts.Close()

	c := newClient(t, ts, time.Millisecond)

	var a jikan.Anime
	a.MalID = 1
	a.Images.JPG.LargeImageURL = ts.URL + "/images/l.jpg"

	dest := filepath.Join(t.TempDir(), "1.jpg")
	if err := c.SaveCover(t.Context(), a, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(img) {
		t.Errorf("exp %q, got %q", img, got)
	}

	a.Images.JPG.LargeImageURL = ts.URL + "/images/missing.jpg"
	if err := c.SaveCover(t.Context(), a, dest); !errors.Is(err, jikan.ErrNotFound) {
		t.Errorf("exp ErrNotFound, got %v", err)
	}

	if err := c.SaveCover(t.Context(), jikan.Anime{MalID: 2}, dest); !errors.Is(err, jikan.ErrNoCoverImage) {
		t.Errorf("exp ErrNoCoverImage, got %v", err)
	}
}
