package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records router and domain counters. A nil *Metrics records
// nothing.
type Metrics struct {
	events   metric.Int64Counter
	duration metric.Float64Histogram
	flows    metric.Int64Counter
	codes    metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	events, err := meter.Int64Counter("actionplan.events",
		metric.WithDescription("Inbound chat events handled, by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("actionplan.event.duration",
		metric.WithDescription("Time to handle one inbound event in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	flows, err := meter.Int64Counter("actionplan.flows.completed",
		metric.WithDescription("Multi-step flows completed, by flow"),
	)
	if err != nil {
		return nil, err
	}
	codes, err := meter.Int64Counter("actionplan.codes.allocated",
		metric.WithDescription("Work item codes allocated, by prefix"),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{events: events, duration: duration, flows: flows, codes: codes}, nil
}

// RecordEvent counts one handled event.
func (m *Metrics) RecordEvent(ctx context.Context, kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("event.kind", kind),
		attribute.String("event.outcome", outcome),
	)
	m.events.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// FlowCompleted counts one completed flow.
func (m *Metrics) FlowCompleted(ctx context.Context, flow string) {
	if m == nil {
		return
	}
	m.flows.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
}

// CodeAllocated counts one allocated work item code.
func (m *Metrics) CodeAllocated(ctx context.Context, prefix string) {
	if m == nil {
		return
	}
	m.codes.Add(ctx, 1, metric.WithAttributes(attribute.String("prefix", prefix)))
}
