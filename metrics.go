package rpncalc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records compilation and evaluation metrics.
// Use NewMetricsRecorder for OpenTelemetry metrics or NoopMetrics{} when
// disabled.
type MetricsRecorder interface {
	// RecordCompile records a compilation. tokens is the length of the
	// compiled program, or 0 if compilation failed.
	RecordCompile(ctx context.Context, tokens int, err error)

	// RecordEval records an evaluation of a compiled program.
	RecordEval(ctx context.Context, duration time.Duration, err error)
}

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordCompile does nothing.
func (NoopMetrics) RecordCompile(_ context.Context, _ int, _ error) {}

// RecordEval does nothing.
func (NoopMetrics) RecordEval(_ context.Context, _ time.Duration, _ error) {}

type otelMetrics struct {
	compiles    metric.Int64Counter
	tokens      metric.Int64Histogram
	evals       metric.Int64Counter
	evalErrors  metric.Int64Counter
	evalLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("rpncalc")

	compiles, err := meter.Int64Counter("rpncalc.compile.count",
		metric.WithDescription("Number of expression compilations"),
	)
	if err != nil {
		return nil, err
	}

	tokens, err := meter.Int64Histogram("rpncalc.compile.tokens",
		metric.WithDescription("Length of compiled programs in tokens"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	evals, err := meter.Int64Counter("rpncalc.eval.count",
		metric.WithDescription("Number of program evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("rpncalc.eval.errors",
		metric.WithDescription("Number of failed program evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("rpncalc.eval.latency_ms",
		metric.WithDescription("Program evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		compiles:    compiles,
		tokens:      tokens,
		evals:       evals,
		evalErrors:  evalErrors,
		evalLatency: evalLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses the global
// OpenTelemetry meter provider. If the instruments cannot be created, it
// logs a warning and returns NoopMetrics{}.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordCompile(ctx context.Context, tokens int, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
		attribute.String("class", errclass(err)),
	}
	m.compiles.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err == nil {
		m.tokens.Record(ctx, int64(tokens))
	}
}

func (m *otelMetrics) RecordEval(ctx context.Context, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
	}
	m.evals.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.evalLatency.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))
	if err != nil {
		m.evalErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("class", errclass(err))))
	}
}
