// Package oteltrace adapts go.opentelemetry.io/otel to the observability.Tracer port.
package oteltrace

import (
	"context"

	"github.com/shopmini/paycore/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New wraps the named otel.Tracer. The caller is responsible for installing
// a TracerProvider (otel.SetTracerProvider) before spans are exported
// anywhere other than the process-default no-op provider.
func New(name string) observability.Tracer {
	if name == "" {
		name = "paycore"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
