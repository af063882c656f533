package anime

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/adamwoolhether/animeshelf/jikan"
	"github.com/adamwoolhether/animeshelf/web"
	"github.com/adamwoolhether/animeshelf/web/errs"
	"github.com/adamwoolhether/animeshelf/web/mux"
)

var errUpstream = errors.New("upstream service unavailable")

type listFn func(ctx context.Context, page int) (jikan.AnimeList, error)

// Recent serves a page of the currently airing season.
func (h *Handlers) Recent(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	page, err := pageParam(r)
	if err != nil {
		return err
	}

	return web.RespondJSON(ctx, w, http.StatusOK, h.listOrEmpty(ctx, "recent", page, h.fetcher.Recent))
}

// Upcoming serves a page of the upcoming season.
func (h *Handlers) Upcoming(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	page, err := pageParam(r)
	if err != nil {
		return err
	}

	return web.RespondJSON(ctx, w, http.StatusOK, h.listOrEmpty(ctx, "upcoming", page, h.fetcher.Upcoming))
}

// Detail serves the full record of one title.
func (h *Handlers) Detail(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := web.ParamInt(r, "id")
	if err != nil {
		return errs.NewFieldsError("id", err)
	}
	if err := web.Validate(idParams{ID: id}); err != nil {
		return err
	}

	a, err := h.fetcher.ByID(ctx, id)
	switch {
	case err == nil:
		return web.RespondJSON(ctx, w, http.StatusOK, a)
	case errors.Is(err, jikan.ErrNotFound):
		return errs.New(http.StatusNotFound, fmt.Errorf("anime[%d] not found", id))
	case errors.Is(err, jikan.ErrInvalidID):
		return errs.NewFieldsError("id", err)
	case ctx.Err() != nil:
		return err
	default:
		h.log.ErrorContext(ctx, "fetching anime", "id", id, "trace_id", mux.TraceID(ctx), "error", err)
		return errs.New(http.StatusBadGateway, errUpstream)
	}
}

// Home list sizes.
const (
	HomeRecentLimit   = 10
	HomeUpcomingLimit = 8
)

// Home serves the landing page. Both lists are requested at once and
// each falls back to an empty page on its own. The featured title is
// picked from the whole recent page before the lists are trimmed.
func (h *Handlers) Home(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var (
		g        errgroup.Group
		recent   jikan.AnimeList
		upcoming jikan.AnimeList
	)

	g.Go(func() error {
		recent = h.listOrEmpty(ctx, "recent", 1, h.fetcher.Recent)
		return ctx.Err()
	})
	g.Go(func() error {
		upcoming = h.listOrEmpty(ctx, "upcoming", 1, h.fetcher.Upcoming)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("home: %w", err)
	}

	page := HomePage{
		Recent:   trimList(recent, HomeRecentLimit),
		Upcoming: trimList(upcoming, HomeUpcomingLimit),
	}
	if featured, ok := jikan.PickFeatured(recent.Data, h.intn); ok {
		page.Featured = &featured
	}

	return web.RespondJSON(ctx, w, http.StatusOK, page)
}

// Health reports the queue without calling upstream.
func (h *Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	health := Health{
		Status: "ok",
		Queue: QueueHealth{
			State:      h.queue.State().String(),
			Pending:    h.queue.Len(),
			CooldownMS: h.queue.Cooldown().Milliseconds(),
		},
	}

	return web.RespondJSON(ctx, w, http.StatusOK, health)
}

// listOrEmpty fetches a list page, serving an empty page when the fetch
// fails. The failure is logged and recorded on the span.
func (h *Handlers) listOrEmpty(ctx context.Context, name string, page int, fn listFn) jikan.AnimeList {
	ctx, span := mux.AddSpan(ctx, "anime."+name, attribute.Int("page", page))
	defer span.End()

	list, err := fn(ctx, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "serving empty page")
		h.log.ErrorContext(ctx, "fetching list, serving empty page", "list", name, "page", page, "trace_id", mux.TraceID(ctx), "error", err)

		return jikan.EmptyList()
	}

	if list.Data == nil {
		list.Data = []jikan.Anime{}
	}

	return list
}

// trimList keeps the first n titles; pagination is left as upstream sent it.
func trimList(list jikan.AnimeList, n int) jikan.AnimeList {
	if len(list.Data) > n {
		list.Data = list.Data[:n]
	}

	return list
}

func pageParam(r *http.Request) (int, error) {
	page, err := web.QueryIntDefault(r, "page", 1)
	if err != nil {
		return 0, errs.NewFieldsError("page", err)
	}

	if err := web.Validate(pageParams{Page: page}); err != nil {
		return 0, err
	}

	return page, nil
}
