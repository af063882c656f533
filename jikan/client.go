package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/adamwoolhether/animeshelf/cache"
	"github.com/adamwoolhether/animeshelf/throttle"
)

const (
	// DefaultBaseURL is the public Jikan v4 API root.
	DefaultBaseURL = "https://api.jikan.moe/v4"

	// RecentPageSize and UpcomingPageSize are the page sizes requested
	// from the season list endpoints.
	RecentPageSize   = 24
	UpcomingPageSize = 12
)

// Client fetches from the Jikan API through a shared throttle.Queue.
type Client struct {
	hc       *http.Client
	media    *http.Client
	baseURL  *url.URL
	queue    *throttle.Queue
	store    cache.Store
	cacheTTL time.Duration
	flight   singleflight.Group
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New builds a Client whose upstream calls are all scheduled on queue.
// The same queue should be shared by every Client talking to the same API.
func New(queue *throttle.Queue, optFns ...Option) (*Client, error) {
	if queue == nil {
		return nil, ErrNilQueue
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	c := &Client{
		hc:       &http.Client{Timeout: 10 * time.Second},
		queue:    queue,
		store:    opts.store,
		cacheTTL: opts.cacheTTL,
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/adamwoolhether/animeshelf/jikan"),
	}

	if opts.baseURL != nil {
		c.baseURL = opts.baseURL
	} else {
		c.baseURL, _ = url.Parse(DefaultBaseURL)
	}
	if opts.client != nil {
		// Timeout and Transport are set below; the caller's client stays as given.
		hc := *opts.client
		c.hc = &hc
	}
	if opts.timeout != nil {
		c.hc.Timeout = *opts.timeout
	}
	if opts.logger != nil {
		c.logger = opts.logger
	}
	if opts.tracer != nil {
		c.tracer = opts.tracer
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	// Cover art is served from a CDN, outside the API's rate limit.
	c.media = &http.Client{Transport: transport}
	if opts.limit != nil {
		rt, err := throttle.NewRoundTripper(*opts.limit, func() *slog.Logger { return c.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring rate limit: %w", err)
		}
		transport = rt
	}
	c.hc.Transport = transport

	return c, nil
}

// Queue returns the queue the client schedules on.
func (c *Client) Queue() *throttle.Queue {
	return c.queue
}

// Recent returns a page of the currently airing season.
func (c *Client) Recent(ctx context.Context, page int) (AnimeList, error) {
	if page < 1 {
		return AnimeList{}, fmt.Errorf("recent: %w", ErrInvalidPage)
	}

	u := c.endpoint("seasons/now", pageQuery(page, RecentPageSize))

	return fetch[AnimeList](ctx, c, "recent", u)
}

// Upcoming returns a page of the upcoming season.
func (c *Client) Upcoming(ctx context.Context, page int) (AnimeList, error) {
	if page < 1 {
		return AnimeList{}, fmt.Errorf("upcoming: %w", ErrInvalidPage)
	}

	u := c.endpoint("seasons/upcoming", pageQuery(page, UpcomingPageSize))

	return fetch[AnimeList](ctx, c, "upcoming", u)
}

// ByID returns the full record of a single title.
func (c *Client) ByID(ctx context.Context, id int) (Anime, error) {
	if id < 1 {
		return Anime{}, fmt.Errorf("by id: %w", ErrInvalidID)
	}

	u := c.endpoint(fmt.Sprintf("anime/%d/full", id), nil)

	resp, err := fetch[animeResponse](ctx, c, "by_id", u)
	if err != nil {
		return Anime{}, err
	}

	return resp.Data, nil
}

// fetch loads the body for u and decodes it into T.
func fetch[T any](ctx context.Context, c *Client, endpoint string, u *url.URL) (T, error) {
	var dest T

	ctx, span := c.tracer.Start(ctx, "jikan."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", u.String())),
	)
	defer span.End()

	body, err := c.load(ctx, endpoint, u.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dest, err
	}

	if err := json.Unmarshal(body, &dest); err != nil {
		err = fmt.Errorf("%s: decoding body: %w", endpoint, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dest, err
	}

	return dest, nil
}

// load serves key from the cache when possible. Otherwise it joins or
// starts a single queued request for key. The shared request is detached
// from ctx cancellation so one caller leaving does not fail the others;
// the http client timeout still bounds it.
func (c *Client) load(ctx context.Context, endpoint, key string) ([]byte, error) {
	if b, ok := c.cached(ctx, endpoint, key); ok {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache.hit", true))
		return b, nil
	}

	shared := context.WithoutCancel(ctx)

	ch := c.flight.DoChan(key, func() (any, error) {
		// A flight that just finished may have filled the cache.
		if b, ok := c.cached(shared, endpoint, key); ok {
			return b, nil
		}

		res := throttle.Schedule(shared, c.queue, func(ctx context.Context) ([]byte, error) {
			return c.get(ctx, endpoint, key)
		})

		b, err := res.Wait()
		if err != nil {
			return nil, err
		}

		if c.store != nil {
			if err := c.store.Set(shared, key, b, c.cacheTTL); err != nil {
				c.logger.Warn("cache write failed", "endpoint", endpoint, "error", err)
			}
		}

		return b, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil

	case <-ctx.Done():
		return nil, fmt.Errorf("%s: waiting for queued request: %w", endpoint, ctx.Err())
	}
}

func (c *Client) cached(ctx context.Context, endpoint, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}

	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "endpoint", endpoint, "error", err)
		return nil, false
	}

	return b, ok
}

// get performs a single GET against the API and returns the raw body.
func (c *Client) get(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: instantiating request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	var body []byte
	readFn := func(resp *http.Response) error {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
		body = b

		return nil
	}

	if err := c.exec(c.hc, req, endpoint, http.StatusOK, readFn); err != nil {
		return nil, err
	}

	return body, nil
}

// exec runs the request and injected function on success after validating the expected status code.
func (c *Client) exec(hc *http.Client, req *http.Request, endpoint string, expCode int, fn execFn) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: exec http do: %w", endpoint, err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != expCode {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return &UnexpectedStatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Err:        statusErr(resp.StatusCode),
		}
	}

	if err := fn(resp); err != nil {
		discardBody = false
		return fmt.Errorf("%s: exec fn: %w", endpoint, err)
	}

	return nil
}

// endpoint resolves path against the base URL. url.Values.Encode sorts
// keys, so equal queries produce equal cache keys.
func (c *Client) endpoint(path string, query map[string]string) *url.URL {
	u := c.baseURL.JoinPath(path)

	if query != nil {
		params := url.Values{}
		for k, v := range query {
			params.Add(k, v)
		}
		u.RawQuery = params.Encode()
	}

	return u
}

func pageQuery(page, limit int) map[string]string {
	return map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
		"sfw":   "true",
	}
}
