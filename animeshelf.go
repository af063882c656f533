// Package animeshelf exposes a ready-to-use Jikan client builder.
package animeshelf

import (
	"fmt"
	"time"

	"github.com/adamwoolhether/animeshelf/jikan"
	"github.com/adamwoolhether/animeshelf/throttle"
)

// DefaultLimit is the per-minute allowance of the public Jikan API.
var DefaultLimit = throttle.Limit{Requests: 60, Per: time.Minute, Burst: 3}

// NewClient instantiates a *jikan.Client with its own request queue,
// spaced by throttle.DefaultCooldown and limited to DefaultLimit. Options
// are applied after the defaults, so they may override the rate limit.
// Clients that share the API should share a queue via jikan.New instead.
func NewClient(opts ...jikan.Option) (*jikan.Client, error) {
	queue, err := throttle.NewQueue(throttle.DefaultCooldown)
	if err != nil {
		return nil, fmt.Errorf("creating queue: %w", err)
	}

	return jikan.New(queue, append([]jikan.Option{jikan.WithRateLimit(DefaultLimit)}, opts...)...)
}
