package throttle

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// roundTripper is an http.RoundTripper that spends a token from a
// rate.Limiter before every outbound request.
type roundTripper struct {
	limiter *rate.Limiter
	limit   Limit
	next    http.RoundTripper
	logFn   func() *slog.Logger
}

// NewRoundTripper returns an http.RoundTripper that waits for a token
// before delegating to next. logFn is resolved per request; when it
// returns nil the exhausted-bucket logging is skipped.
func NewRoundTripper(limit Limit, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if limit.Requests <= 0 || limit.Burst <= 0 || limit.Per <= 0 {
		return nil, fmt.Errorf("requests[%d], per[%s] and burst[%d] %w", limit.Requests, limit.Per, limit.Burst, ErrMustNotBeZero)
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	every := limit.Per / time.Duration(limit.Requests)

	rt := &roundTripper{
		limiter: rate.NewLimiter(rate.Every(every), limit.Burst),
		limit:   limit,
		next:    next,
		logFn:   logFn,
	}

	return rt, nil
}

func (t *roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	logger := t.logFn()
	if logger != nil && t.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "requests", t.limit.Requests, "per", t.limit.Per.String(), "burst", t.limit.Burst, "path", r.URL.Path)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "path", r.URL.Path)
		}()
	}

	start := time.Now()

	err := t.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}
