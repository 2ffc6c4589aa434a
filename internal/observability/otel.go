// Package observability installs the process-wide OpenTelemetry tracer
// provider. Spans come from otelgin (HTTP), the GORM tracing plugin (SQL),
// the services, and the payment gateway client, whose outbound requests
// carry W3C trace context.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-rental-backend/internal/config"
)

// DefaultServiceName is reported when OTEL_SERVICE_NAME is empty.
const DefaultServiceName = "go-rental-backend"

// Build identifies the running binary in trace resources.
type Build struct {
	Version     string
	Environment string
}

// Shutdown flushes pending spans and stops the exporter.
type Shutdown func(context.Context) error

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName string, b Build) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(b.Version),
				semconv.DeploymentEnvironment(b.Environment),
			),
		)
	}
)

// Setup configures OpenTelemetry tracing. When tracing is disabled it
// leaves the global no-op provider in place and returns a no-op Shutdown.
// Globals are only replaced once exporter and resource were built.
func Setup(ctx context.Context, cfg config.OTELConfig, b Build) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(clientOptions(cfg)...))
	if err != nil {
		return nil, err
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	if b.Environment == "" {
		b.Environment = cfg.Environment
	}
	res, err := newServiceResourceFn(ctx, name, b)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// clientOptions dials cfg.Endpoint in plaintext when Insecure is set, and
// over TLS with the system roots otherwise.
func clientOptions(cfg config.OTELConfig) []otlptracegrpc.Option {
	transport := otlptracegrpc.WithInsecure()
	if !cfg.Insecure {
		transport = otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, ""))
	}
	return []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint), transport}
}
