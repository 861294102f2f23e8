package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dailyreport"

// StartRunSpan starts a span for one batch run.
func StartRunSpan(ctx context.Context, runID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
		),
	)
}

// StartAdminSpan starts a span for processing one administrator.
func StartAdminSpan(ctx context.Context, adminID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "admin",
		trace.WithAttributes(
			attribute.String("admin.id", adminID),
		),
	)
}

// StartProjectSpan starts a span for one project's report and email.
func StartProjectSpan(ctx context.Context, adminID, project string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "project",
		trace.WithAttributes(
			attribute.String("admin.id", adminID),
			attribute.String("project.name", project),
		),
	)
}
