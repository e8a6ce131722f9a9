package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Easy-Infra-Ltd/mcp-guard-suite/src/pipeline"

// metrics bundles the OTel instruments every guard evaluation a Pipeline
// runs (Connection, ToolsList, ToolResponse) updates.
// One set is shared across all Pipelines in a process: OTel instruments are
// cheap to share and the guard/phase dimensions are carried as attributes
// rather than separate instruments.
type metrics struct {
	evaluations metric.Int64Counter
	duration    metric.Float64Histogram
}

var defaultMetrics = newMetrics(otel.GetMeterProvider())

func newMetrics(provider metric.MeterProvider) *metrics {
	meter := provider.Meter(instrumentationName)

	evaluations, _ := meter.Int64Counter(
		"mcpguard.evaluate",
		metric.WithDescription("Number of guard evaluations, by guard type, phase, and verdict."),
	)
	duration, _ := meter.Float64Histogram(
		"mcpguard.evaluate.duration",
		metric.WithDescription("Wall-clock duration of a single guard evaluation, in milliseconds."),
		metric.WithUnit("ms"),
	)

	return &metrics{evaluations: evaluations, duration: duration}
}

func (m *metrics) record(ctx context.Context, guardType, phase, verdict string, ms float64) {
	if m == nil {
		return
	}
	attrs := attribute.NewSet(
		attribute.String("guard_type", guardType),
		attribute.String("phase", phase),
		attribute.String("verdict", verdict),
	)
	if m.evaluations != nil {
		m.evaluations.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
	if m.duration != nil {
		m.duration.Record(ctx, ms, metric.WithAttributeSet(attrs))
	}
}
