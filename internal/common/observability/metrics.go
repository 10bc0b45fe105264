package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"captcha-workers/internal/common/logger"
)

// Observability owns the OpenTelemetry meter provider. A zero value is usable
// and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	verifyCounter  otelmetric.Int64Counter
	verifyDuration otelmetric.Float64Histogram
}

// New exports through the default prometheus registerer.
func New(serviceName string, log logger.Logger) *Observability {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer, log)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	o := &Observability{meterProvider: provider, meter: meter}

	o.jobCounter, _ = meter.Int64Counter(
		"jobs_processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"jobs_duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.verifyCounter, _ = meter.Int64Counter(
		"captcha_verifications",
		otelmetric.WithDescription("Number of captcha verifications"),
	)
	o.verifyDuration, _ = meter.Float64Histogram(
		"captcha_verification_duration",
		otelmetric.WithDescription("Captcha verification duration including the provider call"),
		otelmetric.WithUnit("ms"),
	)
	return o
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordVerification records one verification attempt for verifier.
func (o *Observability) RecordVerification(ctx context.Context, verifier string, valid bool, duration time.Duration) {
	if o == nil || o.verifyCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("verifier", verifier),
		attribute.Bool("valid", valid),
	)
	o.verifyCounter.Add(ctx, 1, attrs)
	if o.verifyDuration != nil {
		o.verifyDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
