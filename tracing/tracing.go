// Package tracing installs the OpenTelemetry tracer provider used by the services.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const DefaultServiceName = "federation-registry"

// Span attribute keys.
const (
	AttrRegistrationID = "registration.id"
	AttrCategoryID     = "category.id"
	AttrRegionID       = "region.id"
	AttrActorID        = "actor.id"
	AttrActorRole      = "actor.role"
	AttrResultCount    = "results.count"
)

// Provider wraps the SDK tracer provider. A disabled provider hands out no-op tracers.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewProvider sets the global tracer provider. When enabled, spans are
// written to stdout as JSON.
func NewProvider(enabled bool, serviceName string) (*Provider, error) {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	if !enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(serviceName)}, nil
	}

	exporter, err := stdouttrace.New()
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return &Provider{provider: provider, tracer: provider.Tracer(serviceName)}, nil
}

func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}
