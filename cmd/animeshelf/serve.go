package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adamwoolhether/animeshelf/internal/anime"
	"github.com/adamwoolhether/animeshelf/internal/config"
	"github.com/adamwoolhether/animeshelf/internal/tracing"
	"github.com/adamwoolhether/animeshelf/jikan"
	"github.com/adamwoolhether/animeshelf/web/middleware"
	"github.com/adamwoolhether/animeshelf/web/mux"
	"github.com/adamwoolhether/animeshelf/web/server"
)

// initTracing is swapped in tests.
var initTracing = tracing.Init

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	srvOpts := []server.Option{
		server.WithHost(cfg.Web.Host),
		server.WithReadTimeout(cfg.Web.ReadTimeout),
		server.WithWriteTimeout(cfg.Web.WriteTimeout),
		server.WithIdleTimeout(cfg.Web.IdleTimeout),
		server.WithShutdownTimeout(cfg.Web.ShutdownTimeout),
		server.WithLogger(log),
	}
	appOpts := []mux.Option{mux.WithLogger(log)}
	var clientOpts []jikan.Option
	stopTracing := func(context.Context) error { return nil }

	if cfg.Tracing.Enabled {
		tp, shutdown, err := initTracing(ctx, service, version, cfg.Tracing.Output)
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		stopTracing = shutdown
		srvOpts = append(srvOpts, server.WithShutdownFunc(shutdown))
		appOpts = append(appOpts, mux.WithTracer(tp.Tracer("github.com/adamwoolhether/animeshelf/web")))
		clientOpts = append(clientOpts, jikan.WithTracer(tp.Tracer("github.com/adamwoolhether/animeshelf/jikan")))
	}

	client, closeCache, err := newClient(ctx, cfg, log, clientOpts...)
	if err != nil {
		return errors.Join(err, stopTracing(context.WithoutCancel(ctx)))
	}
	srvOpts = append(srvOpts, server.WithShutdownFunc(closeCache))

	app := mux.New(appOpts...)
	app.Use(
		middleware.Logger(log),
		middleware.Errors(log),
		middleware.Panics(),
		middleware.CORS(cfg.Web.CORSOrigins),
	)
	anime.Routes(app, anime.New(client, client.Queue(), log))

	return server.New(app, srvOpts...).Run(ctx)
}
