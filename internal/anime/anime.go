// Package anime serves the listing and detail endpoints backed by the
// Jikan client.
package anime

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/adamwoolhether/animeshelf/jikan"
	"github.com/adamwoolhether/animeshelf/throttle"
	"github.com/adamwoolhether/animeshelf/web/mux"
)

// Fetcher loads anime data. *jikan.Client satisfies it.
type Fetcher interface {
	Recent(ctx context.Context, page int) (jikan.AnimeList, error)
	Upcoming(ctx context.Context, page int) (jikan.AnimeList, error)
	ByID(ctx context.Context, id int) (jikan.Anime, error)
}

// QueueStats reports on the upstream request queue. *throttle.Queue
// satisfies it.
type QueueStats interface {
	State() throttle.QueueState
	Len() int
	Cooldown() time.Duration
}

// Handlers holds the dependencies of the anime endpoints.
type Handlers struct {
	fetcher Fetcher
	queue   QueueStats
	log     *slog.Logger
	intn    func(n int) int
}

// Option configures Handlers.
type Option func(*Handlers)

// WithIntn replaces the random source used to pick the featured title.
func WithIntn(intn func(n int) int) Option {
	return func(h *Handlers) {
		if intn != nil {
			h.intn = intn
		}
	}
}

// New creates the handlers. A nil logger discards output.
func New(fetcher Fetcher, queue QueueStats, log *slog.Logger, optFns ...Option) *Handlers {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	h := &Handlers{
		fetcher: fetcher,
		queue:   queue,
		log:     log,
		intn:    rand.IntN,
	}

	for _, opt := range optFns {
		opt(h)
	}

	return h
}

// Routes registers every endpoint on app.
func Routes(app *mux.App, h *Handlers) {
	app.Get("/v1/health", h.Health)
	app.Get("/v1/home", h.Home)
	app.Get("/v1/anime/recent", h.Recent)
	app.Get("/v1/anime/upcoming", h.Upcoming)
	app.Get("/v1/anime/{id}", h.Detail)
}
