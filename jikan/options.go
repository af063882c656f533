package jikan

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/animeshelf/cache"
	"github.com/adamwoolhether/animeshelf/throttle"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error

type options struct {
	baseURL   *url.URL
	client    *http.Client
	rt        http.RoundTripper
	timeout   *time.Duration
	userAgent string
	limit     *throttle.Limit
	store     cache.Store
	cacheTTL  time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
}

// WithBaseURL points the client at another API root, such as a mirror or
// a test server. Default is [DefaultBaseURL].
func WithBaseURL(raw string) Option {
	return func(o *options) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base url[%s] must be absolute", raw)
		}
		o.baseURL = u
		return nil
	}
}

// WithHTTPClient replaces the default [http.Client].
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout bounds every upstream request. Because the queue runs one
// request at a time, this is also the longest a single request can hold
// up the queue. Default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithRateLimit adds a token-bucket limiter beneath the queue, for the
// API's longer-window limits.
func WithRateLimit(limit throttle.Limit) Option {
	return func(o *options) error {
		if limit.Requests <= 0 || limit.Burst <= 0 || limit.Per <= 0 {
			return fmt.Errorf("requests[%d], per[%s] and burst[%d] %w", limit.Requests, limit.Per, limit.Burst, throttle.ErrMustNotBeZero)
		}
		o.limit = &limit
		return nil
	}
}

// WithCache stores successful response bodies in store for ttl.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(o *options) error {
		if store == nil {
			return errors.New("cache store must not be nil")
		}
		o.store = store
		o.cacheTTL = ttl
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for upstream call spans. Default is the
// global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
