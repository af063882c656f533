// Package throttle paces calls to a rate-limited upstream API.
//
// # Queue
//
// [Queue] runs scheduled operations one at a time in the order they were
// submitted, and waits a fixed cooldown after each one settles before the
// next may start:
//
//	q, err := throttle.NewQueue(throttle.DefaultCooldown)
//
//	res := throttle.Schedule(ctx, q, func(ctx context.Context) (Page, error) {
//		return fetchPage(ctx, 1)
//	})
//	page, err := res.Wait()
//
// The [Result] settles with exactly the value or error the operation
// produced. A failing operation does not stop the queue. Scheduled work
// cannot be withdrawn, and the queue imposes no timeout on an operation,
// so an operation that never returns stalls every task behind it. Callers
// that need a deadline can use [Result.Await] with their own context.
//
// # RoundTripper
//
// [NewRoundTripper] wraps an [http.RoundTripper] with a token-bucket limiter
// from [golang.org/x/time/rate], for limits expressed over longer windows
// such as requests per minute:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Limit{Requests: 60, Per: time.Minute, Burst: 60},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//
// When the limit is exhausted, outbound requests block until a token
// becomes available or the request context ends.
package throttle
