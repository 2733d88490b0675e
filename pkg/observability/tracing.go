package observability

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName is the service name attached to traces.
const DefaultServiceName = "revboard"

var tracerProvider *sdktrace.TracerProvider

// TracingConfig controls trace export.
type TracingConfig struct {
	// ServiceName defaults to "revboard".
	ServiceName string
	// Enabled turns tracing on. When false a no-op tracer is installed.
	Enabled bool
	// PrettyPrint pretty-prints the stdout span export.
	PrettyPrint bool
}

// InitTracing installs the global tracer provider and returns the tracer for
// the engine to use.
func InitTracing(cfg TracingConfig) (trace.Tracer, error) {
	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	if !cfg.Enabled {
		log.Println("[revboard] tracing disabled")
		return otel.GetTracerProvider().Tracer(name), nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceName(name)),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var opts []stdouttrace.Option
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	log.Println("[revboard] tracing initialized with stdout exporter")

	return tracerProvider.Tracer(name), nil
}

// ShutdownTracing flushes and stops the tracer provider.
func ShutdownTracing(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}
