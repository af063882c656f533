// Package jikan fetches anime listings from the Jikan v4 REST API.
//
// Every upstream call is handed to a shared [throttle.Queue], so all
// callers of a [Client] together stay under the API's per-second limit:
//
//	q, _ := throttle.NewQueue(throttle.DefaultCooldown)
//	c, err := jikan.New(q,
//		jikan.WithUserAgent("animeshelf/1.0"),
//		jikan.WithRateLimit(throttle.Limit{Requests: 60, Per: time.Minute, Burst: 60}),
//	)
//
//	page, err := c.Recent(ctx, 1)
//	upcoming, err := c.Upcoming(ctx, 1)
//	anime, err := c.ByID(ctx, 5114)
//
// Identical requests that are already in flight are coalesced, and
// successful bodies can be cached with [WithCache].
//
// Non-200 responses return an [*UnexpectedStatusError] wrapping
// [ErrUnexpectedStatusCode], joined with [ErrNotFound] or
// [ErrRateLimited] where they apply.
package jikan
