package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/adamwoolhether/animeshelf/cover"
	"github.com/adamwoolhether/animeshelf/internal/config"
)

func saveCover(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("cover", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	id := fs.Int("id", 0, "MyAnimeList id of the title")
	out := fs.String("out", "", "destination file")
	force := fs.Bool("force", false, "overwrite an existing file")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *id < 1 || *out == "" {
		return errUsage
	}

	client, closeCache, err := newClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache(ctx)

	a, err := client.ByID(ctx, *id)
	if err != nil {
		return fmt.Errorf("looking up anime[%d]: %w", *id, err)
	}

	opts := []cover.Option{cover.WithProgress()}
	if !*force {
		opts = append(opts, cover.WithSkipExisting())
	}

	if err := client.SaveCover(ctx, a, *out, opts...); err != nil {
		return err
	}

	log.Info("cover saved", "id", a.MalID, "title", a.Title, "path", *out)

	return nil
}
