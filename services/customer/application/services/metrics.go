package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ghuser/crm/services/customer"

// Enrichment outcomes recorded on customer.address.enrichment.
const (
	enrichmentResolved = "resolved"
	enrichmentFallback = "fallback"
)

type serviceMetrics struct {
	eventsAppended metric.Int64Counter
	enrichment     metric.Int64Counter
	rejected       metric.Int64Counter
}

func newServiceMetrics(meter metric.Meter) *serviceMetrics {
	fallback := noop.NewMeterProvider().Meter(instrumentationName)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{event}"))
		if err != nil {
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}
	return &serviceMetrics{
		eventsAppended: counter("customer.events.appended", "Audit events appended, by event type"),
		enrichment:     counter("customer.address.enrichment", "Postal-code enrichment attempts, by outcome"),
		rejected:       counter("customer.mutations.rejected", "Rejected customer mutations, by error code"),
	}
}

func (m *serviceMetrics) appended(ctx context.Context, eventType string) {
	m.eventsAppended.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

func (m *serviceMetrics) enriched(ctx context.Context, outcome string) {
	m.enrichment.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *serviceMetrics) reject(ctx context.Context, code string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
