// Package telemetry wires OpenTelemetry metrics for the bot.
//
// Metrics are off by default; when disabled a no-op provider is installed
// and recording costs nothing. When enabled they are exported periodically
// to the given writer via the stdout exporter.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const instrumentationScope = "github.com/rpggio/actionplan"

// Options configures the meter provider.
type Options struct {
	Enabled  bool
	Writer   io.Writer
	Interval time.Duration
}

// Init installs the global meter provider and returns its shutdown func.
func Init(opts Options) (shutdown func(context.Context) error, err error) {
	if !opts.Enabled {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return func(context.Context) error { return nil }, nil
	}

	var exOpts []stdoutmetric.Option
	if opts.Writer != nil {
		exOpts = append(exOpts, stdoutmetric.WithWriter(opts.Writer))
	}
	exp, err := stdoutmetric.New(exOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)),
	))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Meter returns a meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationScope)
}
