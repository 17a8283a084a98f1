// Package telemetry wires OpenTelemetry tracing for the gateway process.
// Spans are pretty-printed to stdout; the gateway runs as a single process
// and needs no collector pipeline.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ServiceName identifies the gateway in span resources and instrumentation
// scopes. The HTTP layer reuses it for its otelhttp handler name so process
// and request spans carry the same identity.
const ServiceName = "sensei-gateway"

// Init installs the global tracer provider carrying the gateway's service
// identity. The returned function flushes pending spans and shuts the
// provider down; call it on process exit.
func Init(logger *slog.Logger) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(ServiceName),
			semconv.ServiceNamespace("pysensei"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing initialized", slog.String("service", ServiceName))

	return tp.Shutdown, nil
}
