// Package mux routes requests to error-returning handlers wrapped in
// middleware, and starts a trace span for every request.
package mux

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// App is the core web application, managing routing and middleware.
type App struct {
	mux     *http.ServeMux
	mw      []Middleware
	logger  *slog.Logger
	tracer  trace.Tracer
	methods map[string][]string
}

// Handler is a http.Handler that returns an error.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware defines a signature to chain Handler together.
type Middleware func(handler Handler) Handler

// Option configures an App.
type Option func(*App)

// WithMiddleware sets the middleware applied to every route, outermost
// first.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.mw = append(a.mw, mw...)
	}
}

// WithTracer injects the given tracer into the App.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *App) {
		a.tracer = tracer
	}
}

// WithLogger sets the logger used by the App for internal errors.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		a.logger = log
	}
}

// New creates an App with the given options. A no-op tracer and the
// default slog logger are used unless overridden via options.
func New(optFns ...Option) *App {
	app := &App{
		mux:     http.NewServeMux(),
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("no-op tracer"),
		methods: make(map[string][]string),
	}

	for _, opt := range optFns {
		opt(app)
	}

	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Use appends the given middleware to the underlying mw stack. It only
// affects routes registered afterwards.
func (a *App) Use(mw ...Middleware) {
	a.mw = append(a.mw, mw...)
}

// Get registers a handler for GET requests at the given path.
func (a *App) Get(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, fn, mw...)
}

// Handle registers handler for method and path. Route middleware runs
// inside the App's middleware. The first route on a path also registers
// an OPTIONS route for it, run through the App's middleware so a CORS
// middleware can answer preflight requests; otherwise it replies 204 with
// the path's Allow header.
func (a *App) Handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrap(mw, handler)
	handler = wrap(a.mw, handler)

	a.mux.HandleFunc(fmt.Sprintf("%s %s", method, path), a.serve(method, path, handler))

	if _, ok := a.methods[path]; !ok {
		allow := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Allow", strings.Join(append(slices.Clone(a.methods[path]), http.MethodOptions), ", "))
			SetStatusCode(ctx, http.StatusNoContent)
			w.WriteHeader(http.StatusNoContent)
			return nil
		}
		a.mux.HandleFunc(fmt.Sprintf("%s %s", http.MethodOptions, path), a.serve(http.MethodOptions, path, wrap(a.mw, allow)))
	}
	a.methods[path] = append(a.methods[path], method)
}

// serve adapts handler to the ServeMux, opening the request span and
// storing the request values in the context.
func (a *App) serve(method, path string, handler Handler) http.HandlerFunc {
	pattern := fmt.Sprintf("%s %s", method, path)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := a.startSpan(w, r, pattern)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		if !span.SpanContext().TraceID().IsValid() {
			traceID = uuid.New().String()
		}

		v := RequestValues{
			TraceID: traceID,
			Start:   time.Now().UTC(),
			Tracer:  a.tracer,
		}

		r = r.WithContext(setValues(ctx, &v))

		if err := handler(r.Context(), w, r); err != nil {
			a.logger.Error("unhandled request error", "pattern", pattern, "trace_id", traceID, "error", err)
		}
	}
}

// startSpan opens the request span and writes the trace context into the
// response headers.
func (a *App) startSpan(w http.ResponseWriter, r *http.Request, pattern string) (context.Context, trace.Span) {
	ctx, span := a.tracer.Start(r.Context(), pattern, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.route", pattern),
		attribute.String("url.path", r.URL.Path),
	)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

	return ctx, span
}

// wrap middleware around the handler and execute in order given.
func wrap(mw []Middleware, handler Handler) Handler {
	for _, mwFn := range slices.Backward(mw) {
		if mwFn != nil {
			handler = mwFn(handler)
		}
	}

	return handler
}
