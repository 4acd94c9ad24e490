// Package metrics provides OpenTelemetry metrics with cardinality protection.
// Metrics flow out via OTLP push — there is no scrape endpoint.
package metrics

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	secval "github.com/ai8future/secval-go"
	"github.com/ai8future/secval-go/jsonval"
)

// Pre-configured histogram buckets.
var (
	DurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	PayloadBuckets  = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}
)

// MaxLabelCombinations is the cardinality cap per metric.
const MaxLabelCombinations = 1000

// Recorder holds pre-registered metrics for a validation service.
type Recorder struct {
	prefix             string
	meter              metric.Meter
	validationsTotal   metric.Float64Counter
	violationsTotal    metric.Float64Counter
	validationDuration metric.Float64Histogram
	payloadSize        metric.Float64Histogram

	// cardinality tracking
	mu             sync.RWMutex
	seenCombos     map[string]map[string]struct{} // metric name → set of label combos
	overflowWarned map[string]bool
	logger         *slog.Logger
}

// New creates a Recorder with the given metric prefix and optional logger.
// The prefix is used as the OTel meter name and prepended to metric names.
func New(prefix string, logger *slog.Logger) *Recorder {
	secval.AssertVersionChecked()
	meter := otelapi.GetMeterProvider().Meter(prefix)

	validationsTotal, _ := meter.Float64Counter(
		prefix+"_validations_total",
		metric.WithDescription("Total number of payload validations."),
	)

	violationsTotal, _ := meter.Float64Counter(
		prefix+"_violations_total",
		metric.WithDescription("Total number of violations detected, by kind."),
	)

	validationDuration, _ := meter.Float64Histogram(
		prefix+"_validation_duration_seconds",
		metric.WithDescription("Validation duration in seconds."),
		metric.WithExplicitBucketBoundaries(DurationBuckets...),
	)

	payloadSize, _ := meter.Float64Histogram(
		prefix+"_payload_size_bytes",
		metric.WithDescription("Validated payload size in bytes."),
		metric.WithExplicitBucketBoundaries(PayloadBuckets...),
	)

	return &Recorder{
		prefix:             prefix,
		meter:              meter,
		validationsTotal:   validationsTotal,
		violationsTotal:    violationsTotal,
		validationDuration: validationDuration,
		payloadSize:        payloadSize,
		seenCombos:         make(map[string]map[string]struct{}),
		overflowWarned:     make(map[string]bool),
		logger:             logger,
	}
}

// RecordValidation records the outcome of one validation with cardinality
// protection. The preset label names the limit set in use ("strict",
// "api", ...); pass a fixed label like "custom" for ad-hoc configs rather
// than anything derived from the payload. The context is used for
// trace-metric correlation via OTel exemplars.
func (r *Recorder) RecordValidation(ctx context.Context, preset string, res jsonval.Result, durationSeconds, payloadBytes float64) {
	outcome := "valid"
	if !res.Valid {
		outcome = "invalid"
	}

	comboKey := preset + "\x00" + outcome
	if r.checkCardinality("validations_total", comboKey) {
		r.validationsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("preset", preset),
				attribute.String("outcome", outcome),
			),
		)
	}

	// Violation kinds come from a fixed enum, so the combo space is bounded,
	// but the shared cap still applies.
	for _, v := range res.Violations {
		kind := v.Kind.String()
		if r.checkCardinality("violations_total", kind) {
			r.violationsTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.String("kind", kind)),
			)
		}
	}

	// Duration and size use the preset label only.
	if r.checkCardinality("validation_duration_seconds", preset) {
		r.validationDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(attribute.String("preset", preset)),
		)
	}

	if payloadBytes >= 0 && r.checkCardinality("payload_size_bytes", preset) {
		r.payloadSize.Record(ctx, payloadBytes,
			metric.WithAttributes(attribute.String("preset", preset)),
		)
	}
}

// checkCardinality returns true if the combo is allowed (under limit).
func (r *Recorder) checkCardinality(metricName, combo string) bool {
	r.mu.RLock()
	combos, exists := r.seenCombos[metricName]
	if exists {
		if _, seen := combos[combo]; seen {
			r.mu.RUnlock()
			return true
		}
		if len(combos) >= MaxLabelCombinations {
			r.mu.RUnlock()
			r.warnOnceOverflow(metricName)
			return false
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seenCombos[metricName] == nil {
		r.seenCombos[metricName] = make(map[string]struct{})
	}
	if len(r.seenCombos[metricName]) >= MaxLabelCombinations {
		return false
	}
	r.seenCombos[metricName][combo] = struct{}{}
	return true
}

func (r *Recorder) warnOnceOverflow(metricName string) {
	r.mu.RLock()
	if r.overflowWarned[metricName] {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.mu.Lock()
	if r.overflowWarned[metricName] {
		r.mu.Unlock()
		return
	}
	r.overflowWarned[metricName] = true
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Warn("metrics cardinality limit reached, dropping new label combinations",
			"metric", metricName,
			"limit", MaxLabelCombinations,
		)
	}
}

// CounterVec wraps an OTel Float64Counter with cardinality protection.
type CounterVec struct {
	inner    metric.Float64Counter
	name     string
	recorder *Recorder
}

// Add increments the counter with the given label pairs (key, value, key, value, ...).
func (c *CounterVec) Add(ctx context.Context, val float64, labelPairs ...string) {
	labels := pairsToValues(labelPairs)
	combo := strings.Join(labels, "\x00")
	if c.recorder.checkCardinality(c.name, combo) {
		c.inner.Add(ctx, val, metric.WithAttributes(pairsToAttributes(labelPairs)...))
	}
}

// HistogramVec wraps an OTel Float64Histogram with cardinality protection.
type HistogramVec struct {
	inner    metric.Float64Histogram
	name     string
	recorder *Recorder
}

// Observe records a value in the histogram with the given label pairs.
func (h *HistogramVec) Observe(ctx context.Context, val float64, labelPairs ...string) {
	labels := pairsToValues(labelPairs)
	combo := strings.Join(labels, "\x00")
	if h.recorder.checkCardinality(h.name, combo) {
		h.inner.Record(ctx, val, metric.WithAttributes(pairsToAttributes(labelPairs)...))
	}
}

// Counter creates and registers a new counter with the given name.
func (r *Recorder) Counter(name string) *CounterVec {
	fullName := r.prefix + "_" + name
	cv, _ := r.meter.Float64Counter(
		fullName,
		metric.WithDescription("Custom counter: "+name),
	)
	return &CounterVec{inner: cv, name: name, recorder: r}
}

// Histogram creates and registers a new histogram with the given name and buckets.
func (r *Recorder) Histogram(name string, buckets []float64) *HistogramVec {
	fullName := r.prefix + "_" + name
	hv, _ := r.meter.Float64Histogram(
		fullName,
		metric.WithDescription("Custom histogram: "+name),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	return &HistogramVec{inner: hv, name: name, recorder: r}
}

// pairsToValues extracts values from key-value pairs (skipping keys).
func pairsToValues(pairs []string) []string {
	values := make([]string, 0, len(pairs)/2)
	for i := 1; i < len(pairs); i += 2 {
		values = append(values, pairs[i])
	}
	return values
}

// pairsToAttributes converts key-value pairs to OTel attributes.
func pairsToAttributes(pairs []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		attrs = append(attrs, attribute.String(pairs[i], pairs[i+1]))
	}
	return attrs
}
