// Package telemetry exposes the frame loop's OpenTelemetry instruments.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const ScopeName = "github.com/lallassu/citydrive"

type Metrics struct {
	frameTime  metric.Float64Histogram
	assetLoads metric.Int64Counter
	speed      metric.Float64Gauge
}

func New(meter metric.Meter) (*Metrics, error) {
	frameTime, err := meter.Float64Histogram("citydrive.frame.duration",
		metric.WithDescription("Wall time between presented frames"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("frame histogram: %w", err)
	}
	assetLoads, err := meter.Int64Counter("citydrive.asset.loads",
		metric.WithDescription("Finished asset loads by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("asset counter: %w", err)
	}
	speed, err := meter.Float64Gauge("citydrive.vehicle.speed",
		metric.WithDescription("Car speed in world units per frame"),
	)
	if err != nil {
		return nil, fmt.Errorf("speed gauge: %w", err)
	}
	return &Metrics{frameTime: frameTime, assetLoads: assetLoads, speed: speed}, nil
}

func (m *Metrics) Frame(ctx context.Context, d time.Duration) {
	m.frameTime.Record(ctx, float64(d)/float64(time.Millisecond))
}

func (m *Metrics) AssetLoaded(ctx context.Context, name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.assetLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("asset", name),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) Speed(ctx context.Context, v float64) {
	m.speed.Record(ctx, v)
}
