package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "dailyreport"

// Metrics holds all dailyreport metric instruments.
type Metrics struct {
	ReportsSent    metric.Int64Counter
	ReportsSkipped metric.Int64Counter
	RunDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ReportsSent, err = meter.Int64Counter("dailyreport.reports.sent",
		metric.WithDescription("Number of report emails sent"))
	if err != nil {
		return nil, err
	}

	m.ReportsSkipped, err = meter.Int64Counter("dailyreport.reports.skipped",
		metric.WithDescription("Number of projects skipped, by reason"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("dailyreport.run.duration_seconds",
		metric.WithDescription("Batch run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordSent counts one delivered report.
func (m *Metrics) RecordSent(ctx context.Context, project string) {
	if m == nil {
		return
	}
	m.ReportsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("project.name", project)))
}

// RecordSkipped counts one skipped project.
func (m *Metrics) RecordSkipped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.ReportsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRun records the duration of a finished batch run.
func (m *Metrics) RecordRun(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.RunDuration.Record(ctx, seconds)
}
