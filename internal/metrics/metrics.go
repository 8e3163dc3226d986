// Package metrics holds the simulation's OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/cxd309/vehicle-engine/internal/metrics"

// Recorder records per-tick and per-sample measurements.
type Recorder struct {
	ticks        metric.Int64Counter
	samples      metric.Int64Counter
	writeErrors  metric.Int64Counter
	stepDuration metric.Float64Histogram
	vehicles     metric.Int64UpDownCounter
}

// New creates the instruments on m. A nil meter uses the global provider.
func New(m metric.Meter) (*Recorder, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	var (
		r   Recorder
		err error
	)
	if r.ticks, err = m.Int64Counter("sim.ticks",
		metric.WithDescription("Fixed simulation ticks executed")); err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}
	if r.samples, err = m.Int64Counter("sim.samples",
		metric.WithDescription("Vehicle samples handed to storage")); err != nil {
		return nil, fmt.Errorf("creating sample counter: %w", err)
	}
	if r.writeErrors, err = m.Int64Counter("sim.storage.errors",
		metric.WithDescription("Samples the storage backend rejected")); err != nil {
		return nil, fmt.Errorf("creating storage error counter: %w", err)
	}
	if r.stepDuration, err = m.Float64Histogram("sim.step.duration",
		metric.WithDescription("Wall time of one simulation tick"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("creating step histogram: %w", err)
	}
	if r.vehicles, err = m.Int64UpDownCounter("sim.vehicles",
		metric.WithDescription("Vehicles in the simulation")); err != nil {
		return nil, fmt.Errorf("creating vehicle counter: %w", err)
	}
	return &r, nil
}

// Tick records one tick and its wall time.
func (r *Recorder) Tick(ctx context.Context, simulationID string, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("simulation", simulationID))
	r.ticks.Add(ctx, 1, attrs)
	r.stepDuration.Record(ctx, float64(took)/float64(time.Millisecond), attrs)
}

// Sample records a sample write on backend; err is the write result.
func (r *Recorder) Sample(ctx context.Context, backend string, err error) {
	attrs := metric.WithAttributes(attribute.String("backend", backend))
	r.samples.Add(ctx, 1, attrs)
	if err != nil {
		r.writeErrors.Add(ctx, 1, attrs)
	}
}

// Vehicles adjusts the live vehicle count by delta.
func (r *Recorder) Vehicles(ctx context.Context, delta int64) {
	r.vehicles.Add(ctx, delta)
}
