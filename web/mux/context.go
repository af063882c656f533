package mux

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type requestKey struct{}

// RequestValues is per-request state shared by the middleware chain.
// StatusCode is filled in by the responder once a reply is written.
type RequestValues struct {
	TraceID    string
	Start      time.Time
	Tracer     trace.Tracer
	StatusCode int
}

// Values returns the request's values. Outside a routed request it
// returns placeholders carrying the nil uuid and a no-op tracer.
func Values(ctx context.Context) *RequestValues {
	if v, ok := ctx.Value(requestKey{}).(*RequestValues); ok {
		return v
	}

	return &RequestValues{
		TraceID: uuid.Nil.String(),
		Start:   time.Now(),
		Tracer:  noop.NewTracerProvider().Tracer(""),
	}
}

// TraceID returns the request's trace id.
func TraceID(ctx context.Context) string {
	return Values(ctx).TraceID
}

// SetStatusCode records the reply status for the request logger. It is
// a no-op outside a routed request.
func SetStatusCode(ctx context.Context, statusCode int) {
	if v, ok := ctx.Value(requestKey{}).(*RequestValues); ok {
		v.StatusCode = statusCode
	}
}

// AddSpan starts a child span on the request's tracer. Outside a routed
// request the span already in ctx, if any, is returned unchanged.
func AddSpan(ctx context.Context, spanName string, keyValues ...attribute.KeyValue) (context.Context, trace.Span) {
	v, ok := ctx.Value(requestKey{}).(*RequestValues)
	if !ok || v.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return v.Tracer.Start(ctx, spanName, trace.WithAttributes(keyValues...))
}

func setValues(ctx context.Context, v *RequestValues) context.Context {
	return context.WithValue(ctx, requestKey{}, v)
}
