package jikan

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/animeshelf/cover"
)

// SaveCover downloads the large cover image of a to destPath. Images are
// fetched from the CDN directly and do not pass through the queue.
func (c *Client) SaveCover(ctx context.Context, a Anime, destPath string, opts ...cover.Option) error {
	src := a.Images.JPG.LargeImageURL
	if src == "" {
		src = a.Images.JPG.ImageURL
	}
	if src == "" {
		return fmt.Errorf("anime[%d]: %w", a.MalID, ErrNoCoverImage)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("cover: instantiating request: %w", err)
	}

	saveFn := func(resp *http.Response) error {
		if err := cover.Save(ctx, resp.Body, resp.ContentLength, destPath, c.logger, opts...); err != nil {
			return fmt.Errorf("saving cover: %w", err)
		}

		return nil
	}

	return c.exec(c.media, req, "cover", http.StatusOK, saveFn)
}
