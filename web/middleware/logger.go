// Package middleware holds the mux.Middleware applied to every route.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/animeshelf/web/mux"
)

// Logger writes one record when a request arrives and one when it has
// been answered, both tagged with the request's trace id.
func Logger(log *slog.Logger) mux.Middleware {
	return func(next mux.Handler) mux.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			rv := mux.Values(ctx)

			target := r.URL.Path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}

			reqLog := log.With("trace_id", rv.TraceID, "method", r.Method, "target", target)
			reqLog.Info("request received", "client", r.RemoteAddr)

			err := next(ctx, w, r)

			status := rv.StatusCode
			if status == 0 {
				status = http.StatusOK
			}
			reqLog.Info("request answered", "status", status, "elapsed", time.Since(rv.Start).String())

			return err
		}
	}
}
