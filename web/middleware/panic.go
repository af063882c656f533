package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/adamwoolhether/animeshelf/web/mux"
)

// Panics turns a panicking handler into an error carrying the panic value
// and stack, which the Errors middleware reports as a hidden 500.
func Panics() mux.Middleware {
	return func(next mux.Handler) mux.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("handler panic: %v\n%s", rec, debug.Stack())
				}
			}()

			return next(ctx, w, r)
		}
	}
}
