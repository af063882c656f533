// Package tracing installs the OpenTelemetry tracer provider used by the
// HTTP layer and the Jikan client. Spans are written as JSON by the
// stdout exporter, either to stdout or to a file.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ShutdownFunc flushes pending spans and releases the exporter output.
type ShutdownFunc func(ctx context.Context) error

// Init creates a tracer provider exporting to outputFile, or to stdout
// when outputFile is empty, and registers it along with the W3C trace
// context propagator as the otel globals.
func Init(ctx context.Context, serviceName, serviceVersion, outputFile string) (trace.TracerProvider, ShutdownFunc, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer

	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("creating trace output: %w", err)
		}
		w, closer = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, nil, fmt.Errorf("creating exporter: %w", err)
	}

	tp, err := NewProvider(ctx, serviceName, serviceVersion, exporter)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	shutdown := func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			err = errors.Join(err, closer.Close())
		}
		return err
	}

	return tp, shutdown, nil
}

// NewProvider builds a batching tracer provider for the given exporter
// without touching the otel globals.
func NewProvider(ctx context.Context, serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
