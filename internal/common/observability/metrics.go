package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records aggregation runs through the OpenTelemetry metric SDK,
// exported on the default prometheus registry.
type Observability struct {
	meterProvider  *metric.MeterProvider
	runCounter     otelmetric.Int64Counter
	runDuration    otelmetric.Float64Histogram
	recordsEmitted otelmetric.Int64Counter
}

// New installs a meter provider backed by reader. A nil reader selects the
// prometheus exporter; if that cannot be built the returned value records nothing.
func New(serviceName string, reader metric.Reader) *Observability {
	if reader == nil {
		exporter, err := prometheus.New()
		if err != nil {
			return &Observability{}
		}
		reader = exporter
	}

	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	runCounter, _ := meter.Int64Counter(
		"aggregation.runs",
		otelmetric.WithDescription("Number of make/year aggregation runs"),
	)

	runDuration, _ := meter.Float64Histogram(
		"aggregation.duration",
		otelmetric.WithDescription("Aggregation run duration"),
		otelmetric.WithUnit("ms"),
	)

	recordsEmitted, _ := meter.Int64Counter(
		"aggregation.records",
		otelmetric.WithDescription("Number of variant records handed to a renderer"),
	)

	return &Observability{
		meterProvider:  provider,
		runCounter:     runCounter,
		runDuration:    runDuration,
		recordsEmitted: recordsEmitted,
	}
}

// RecordRun records one aggregation for vehicleMake with its outcome and size.
func (o *Observability) RecordRun(ctx context.Context, vehicleMake, status string, duration time.Duration, records int) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("make", vehicleMake),
		attribute.String("status", status),
	)
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, attrs)
	}
	if o.runDuration != nil {
		o.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
	if o.recordsEmitted != nil && records > 0 {
		o.recordsEmitted.Add(ctx, int64(records), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
