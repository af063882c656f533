package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/adamwoolhether/animeshelf/web"
	"github.com/adamwoolhether/animeshelf/web/errs"
	"github.com/adamwoolhether/animeshelf/web/mux"
)

// Errors handles errors coming out of the call chain.
func Errors(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			reqLog := log.With("trace_id", mux.TraceID(ctx))

			var fieldErr errs.FieldErrors
			if errors.As(err, &fieldErr) {
				reqLog.Warn("invalid request", "fields", fieldErr.Fields())
				return web.RespondJSON(ctx, w, http.StatusUnprocessableEntity, fieldErr)
			}

			var appErr *errs.Error
			if !errors.As(err, &appErr) { // anything that escaped the handler is hidden from callers.
				appErr = errs.NewInternal(err)
			}

			reqLog.Error(err.Error(), "source_err_file", path.Base(appErr.FileName), "source_err_func", path.Base(appErr.FuncName))

			if appErr.IsInternal() {
				appErr.Message = http.StatusText(appErr.Code)
			}

			return web.RespondError(ctx, w, appErr)
		}

		return h
	}

	return m
}
