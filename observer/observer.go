// Package observer wires OpenTelemetry tracing into scribe's Tracer/Span
// abstraction. Only the tracing signal is exported; log and metric
// exporters are not wired (see SPEC_FULL.md).
package observer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const scopeName = "github.com/arcoslabs/scribe"

// Config controls the OTLP/HTTP trace exporter.
type Config struct {
	Endpoint    string // host:port, e.g. "localhost:4318"; empty disables export
	ServiceName string
	Insecure    bool
}

// Init configures the global TracerProvider. When cfg.Endpoint is empty,
// installs a no-op provider so NewTracer's spans are cheap discards.
// Returns a shutdown func that flushes pending spans; callers should defer
// it at process exit.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.Endpoint == "" {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("observer: create trace exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "scribe"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(name)))
	if err != nil {
		return nil, fmt.Errorf("observer: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
