// Package batch validates many payloads concurrently with bounded
// parallelism and OpenTelemetry tracing. It offers ordered fan-out over
// slices and a streaming variant for channel-fed pipelines.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	secval "github.com/ai8future/secval-go"
	"github.com/ai8future/secval-go/jsonval"
	"github.com/ai8future/secval-go/metrics"
)

const tracerName = "github.com/ai8future/secval-go/batch"

// Option configures a batch function.
type Option func(*config)

type config struct {
	workers  int
	registry *jsonval.PatternRegistry
	recorder *metrics.Recorder
	preset   string
}

func defaults() config {
	return config{
		workers:  runtime.NumCPU(),
		registry: jsonval.DefaultRegistry(),
		preset:   "custom",
	}
}

// Workers sets the maximum concurrency level. Values less than 1 are clamped to 1.
func Workers(n int) Option {
	return func(c *config) { c.workers = max(1, n) }
}

// WithRegistry overrides the pattern registry used for every payload.
func WithRegistry(reg *jsonval.PatternRegistry) Option {
	return func(c *config) { c.registry = reg }
}

// WithRecorder attaches a metrics recorder. Every payload is recorded
// under the given preset label.
func WithRecorder(rec *metrics.Recorder, preset string) Option {
	return func(c *config) {
		c.recorder = rec
		c.preset = preset
	}
}

// Outcome holds the validation result for one streamed payload.
type Outcome struct {
	Index  int
	Result jsonval.Result
	Err    error
}

// Errors collects per-payload failures from ValidateTexts.
type Errors struct {
	Failures []Failure
}

// Failure records the index and error of a single failed payload.
type Failure struct {
	Index int
	Err   error
}

func (e *Errors) Error() string {
	return fmt.Sprintf("%d payload(s) failed", len(e.Failures))
}

// Unwrap returns the underlying errors for use with errors.Is / errors.As.
func (e *Errors) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Err
	}
	return out
}

// ValidateValues validates each value with bounded concurrency. Results
// are returned in input order. Value-level validation cannot fail, so
// there is no error return; inspect each Result for violations.
func ValidateValues(ctx context.Context, items []jsonval.Value, cfg jsonval.Config, opts ...Option) []jsonval.Result {
	secval.AssertVersionChecked()
	bc := defaults()
	for _, o := range opts {
		o(&bc)
	}

	tracer := otelapi.GetTracerProvider().Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "batch.ValidateValues", trace.WithAttributes(
		attribute.Int("batch.total", len(items)),
	))
	defer span.End()

	results := make([]jsonval.Result, len(items))

	sem := make(chan struct{}, bc.workers)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{} // acquire
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			childCtx, childSpan := tracer.Start(ctx, "batch.ValidateValues.item",
				trace.WithAttributes(attribute.Int("batch.index", i)),
			)
			defer childSpan.End()

			start := time.Now()
			res := jsonval.ValidateWith(item, cfg, bc.registry)
			results[i] = res
			childSpan.SetAttributes(attribute.Bool("batch.valid", res.Valid))
			if bc.recorder != nil {
				bc.recorder.RecordValidation(childCtx, bc.preset, res,
					time.Since(start).Seconds(), -1)
			}
		}()
	}

	wg.Wait()

	span.SetAttributes(attribute.Int("batch.invalid", countInvalid(results)))
	return results
}

// ValidateTexts validates each raw payload with bounded concurrency.
// Results are returned in input order. Payloads that cannot be parsed (or
// that exceed the total-size limit) produce a zero Result at their index
// and are reported together in a single *Errors.
func ValidateTexts(ctx context.Context, payloads [][]byte, cfg jsonval.Config, opts ...Option) ([]jsonval.Result, error) {
	secval.AssertVersionChecked()
	bc := defaults()
	for _, o := range opts {
		o(&bc)
	}

	tracer := otelapi.GetTracerProvider().Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "batch.ValidateTexts", trace.WithAttributes(
		attribute.Int("batch.total", len(payloads)),
	))
	defer span.End()

	results := make([]jsonval.Result, len(payloads))
	errs := make([]error, len(payloads))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(bc.workers)

	for i, payload := range payloads {
		g.Go(func() error {
			childCtx, childSpan := tracer.Start(gCtx, "batch.ValidateTexts.item",
				trace.WithAttributes(
					attribute.Int("batch.index", i),
					attribute.Int("batch.bytes", len(payload)),
				),
			)
			defer childSpan.End()

			start := time.Now()
			res, err := jsonval.ValidateTextWith(payload, cfg, bc.registry)
			results[i] = res
			errs[i] = err
			if err != nil {
				childSpan.RecordError(err)
			} else {
				childSpan.SetAttributes(attribute.Bool("batch.valid", res.Valid))
			}
			if bc.recorder != nil && err == nil {
				bc.recorder.RecordValidation(childCtx, bc.preset, res,
					time.Since(start).Seconds(), float64(len(payload)))
			}
			// Per-payload failures are collected, not propagated, so one
			// malformed payload does not cancel its siblings.
			return nil
		})
	}

	// The group error is always nil; Wait is for completion only.
	_ = g.Wait()

	var failures []Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, Failure{Index: i, Err: err})
		}
	}

	span.SetAttributes(
		attribute.Int("batch.invalid", countInvalid(results)),
		attribute.Int("batch.failed", len(failures)),
	)

	if len(failures) > 0 {
		return results, &Errors{Failures: failures}
	}
	return results, nil
}

// SanitizeValues sanitizes each value with bounded concurrency, returning
// the cleaned copies in input order. removeDangerous has the same meaning
// as in jsonval.Sanitize.
func SanitizeValues(ctx context.Context, items []jsonval.Value, cfg jsonval.Config, removeDangerous bool, opts ...Option) []jsonval.Value {
	secval.AssertVersionChecked()
	bc := defaults()
	for _, o := range opts {
		o(&bc)
	}

	tracer := otelapi.GetTracerProvider().Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "batch.SanitizeValues", trace.WithAttributes(
		attribute.Int("batch.total", len(items)),
	))
	defer span.End()

	out := make([]jsonval.Value, len(items))
	sem := make(chan struct{}, bc.workers)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			_, childSpan := tracer.Start(ctx, "batch.SanitizeValues.item",
				trace.WithAttributes(attribute.Int("batch.index", i)),
			)
			defer childSpan.End()

			out[i] = jsonval.SanitizeWith(item, cfg, bc.registry, removeDangerous)
		}()
	}

	wg.Wait()
	return out
}

// ValidateStream validates payloads received from in with bounded
// concurrency, sending outcomes to the returned channel. Outcome indices
// reflect arrival order; delivery order depends on worker timing. The
// output channel is closed when the input channel is closed and all
// in-flight work completes.
func ValidateStream(ctx context.Context, in <-chan []byte, cfg jsonval.Config, opts ...Option) <-chan Outcome {
	secval.AssertVersionChecked()
	bc := defaults()
	for _, o := range opts {
		o(&bc)
	}

	out := make(chan Outcome)

	go func() {
		defer close(out)

		tracer := otelapi.GetTracerProvider().Tracer(tracerName)
		_, span := tracer.Start(ctx, "batch.ValidateStream")
		defer span.End()

		var wg sync.WaitGroup
		sem := make(chan struct{}, bc.workers)
		idx := 0

		for payload := range in {
			select {
			case <-ctx.Done():
				// Stop accepting new payloads but wait for in-flight workers.
				goto drain
			case sem <- struct{}{}:
			}

			wg.Add(1)
			currentIdx := idx
			currentPayload := payload
			idx++

			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				childCtx, childSpan := tracer.Start(ctx, "batch.ValidateStream.item",
					trace.WithAttributes(attribute.Int("batch.index", currentIdx)),
				)
				start := time.Now()
				res, err := jsonval.ValidateTextWith(currentPayload, cfg, bc.registry)
				if err != nil {
					childSpan.RecordError(err)
				}
				if bc.recorder != nil && err == nil {
					bc.recorder.RecordValidation(childCtx, bc.preset, res,
						time.Since(start).Seconds(), float64(len(currentPayload)))
				}
				childSpan.End()
				out <- Outcome{Index: currentIdx, Result: res, Err: err}
			}()
		}

	drain:
		wg.Wait()
	}()

	return out
}

func countInvalid(results []jsonval.Result) int {
	n := 0
	for _, r := range results {
		if !r.Valid {
			n++
		}
	}
	return n
}
