// Command secval-check validates JSON payloads from files or stdin.
//
// Usage:
//
//	secval-check [flags] [file ...]
//
// With no file arguments the payload is read from stdin. Multiple files
// are validated concurrently. Exit codes: 0 all payloads clean, 1 at
// least one violation or unparseable payload, 2 usage error.
//
//	secval-check -preset api payload.json
//	cat payload.json | secval-check -strict -sanitize
//	secval-check -hash payload.json
//	tail -f events.ndjson | secval-check -stream -preset api
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	secval "github.com/ai8future/secval-go"
	"github.com/ai8future/secval-go/batch"
	"github.com/ai8future/secval-go/config"
	"github.com/ai8future/secval-go/integrity"
	"github.com/ai8future/secval-go/jsonval"
	"github.com/ai8future/secval-go/lifecycle"
	"github.com/ai8future/secval-go/logz"
	"github.com/ai8future/secval-go/metrics"
	"github.com/ai8future/secval-go/otel"
)

func main() {
	secval.RequireMajor(1)
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

type options struct {
	preset       string
	strict       bool
	sanitize     bool
	hash         bool
	canonical    bool
	patternsFile string
	logLevel     string
	otlpEndpoint string
	stream       bool
	workers      int
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("secval-check", flag.ContinueOnError)
	fs.StringVar(&opts.preset, "preset", "", "limit preset: strict, relaxed, or api (default: SECVAL_* environment)")
	fs.BoolVar(&opts.strict, "strict", false, "force strict mode on top of the chosen limits")
	fs.BoolVar(&opts.sanitize, "sanitize", false, "print the sanitized document instead of a report")
	fs.BoolVar(&opts.hash, "hash", false, "print the canonical SHA-256 digest instead of a report")
	fs.BoolVar(&opts.canonical, "canonical", false, "print the canonical serialization instead of a report")
	fs.StringVar(&opts.patternsFile, "patterns", "", "YAML file with additional threat patterns")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&opts.otlpEndpoint, "otlp", "", "OTLP gRPC endpoint for traces and metrics (disabled when empty)")
	fs.BoolVar(&opts.stream, "stream", false, "read newline-delimited JSON from stdin and report each document")
	fs.IntVar(&opts.workers, "workers", 4, "concurrent validations when checking multiple files")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := logz.New(opts.logLevel)

	if opts.preset != "" {
		os.Setenv("SECVAL_PRESET", opts.preset)
	}
	cfg, err := loadLimits()
	if err != nil {
		logger.Error("bad configuration", "error", err)
		return 2
	}
	if opts.strict {
		cfg.StrictMode = true
	}

	registry := jsonval.DefaultRegistry()
	if opts.patternsFile != "" {
		set, err := config.LoadPatternSet(opts.patternsFile)
		if err != nil {
			logger.Error("cannot load pattern file", "error", err)
			return 2
		}
		registry, err = jsonval.NewRegistry(set)
		if err != nil {
			logger.Error("cannot compile patterns", "error", err)
			return 2
		}
	}

	ctx := context.Background()
	var rec *metrics.Recorder
	if opts.otlpEndpoint != "" {
		shutdown := otel.Init(otel.Config{
			ServiceName:    "secval-check",
			ServiceVersion: secval.Version,
			Endpoint:       opts.otlpEndpoint,
		})
		defer func() {
			if err := shutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown", "error", err)
			}
		}()
		rec = metrics.New("secval", logger)
	}

	if opts.stream {
		return streamMode(ctx, stdin, stdout, cfg, registry, rec, opts, logger)
	}

	payloads, names, code := readPayloads(fs.Args(), stdin, logger)
	if code != 0 {
		return code
	}

	if opts.sanitize || opts.hash || opts.canonical {
		if len(payloads) != 1 {
			fmt.Fprintln(os.Stderr, "secval-check: -sanitize, -hash, and -canonical take exactly one payload")
			return 2
		}
		return transform(payloads[0], cfg, registry, opts, logger, stdout)
	}

	return report(ctx, payloads, names, cfg, registry, rec, opts, logger, stdout)
}

// loadLimits builds the limit config from the environment, converting the
// panic-based loader into an error for CLI-friendly reporting.
func loadLimits() (cfg jsonval.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return config.LimitsFromEnv(), nil
}

func readPayloads(files []string, stdin io.Reader, logger *slog.Logger) ([][]byte, []string, int) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			logger.Error("cannot read stdin", "error", err)
			return nil, nil, 2
		}
		return [][]byte{data}, []string{"<stdin>"}, 0
	}

	payloads := make([][]byte, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			logger.Error("cannot read file", "file", f, "error", err)
			return nil, nil, 2
		}
		payloads = append(payloads, data)
	}
	return payloads, files, 0
}

// transform handles the -sanitize, -hash, and -canonical output modes.
func transform(payload []byte, cfg jsonval.Config, registry *jsonval.PatternRegistry, opts options, logger *slog.Logger, stdout io.Writer) int {
	if opts.hash {
		sum, err := integrity.HashText(payload)
		if err != nil {
			logger.Error("cannot hash payload", "error", err)
			return 1
		}
		fmt.Fprintln(stdout, sum)
		return 0
	}

	v, err := jsonval.Parse(payload)
	if err != nil {
		logger.Error("cannot parse payload", "error", err)
		return 1
	}

	if opts.sanitize {
		v = jsonval.SanitizeWith(v, cfg, registry, true)
	}
	text, err := jsonval.Serialize(v, cfg, false)
	if err != nil {
		var secErr *jsonval.SecurityError
		if errors.As(err, &secErr) {
			logger.Error("document rejected", logz.Result(jsonval.Result{Violations: secErr.Violations}))
		} else {
			logger.Error("cannot serialize", "error", err)
		}
		return 1
	}
	fmt.Fprintln(stdout, text)
	return 0
}

// streamMode validates newline-delimited JSON documents from stdin as they
// arrive, emitting one report line per document. Reader and writer run as
// lifecycle components so SIGTERM and SIGINT drain in-flight work before
// the process exits.
func streamMode(ctx context.Context, stdin io.Reader, stdout io.Writer, cfg jsonval.Config, registry *jsonval.PatternRegistry, rec *metrics.Recorder, opts options, logger *slog.Logger) int {
	batchOpts := []batch.Option{batch.Workers(opts.workers), batch.WithRegistry(registry)}
	if rec != nil {
		batchOpts = append(batchOpts, batch.WithRecorder(rec, presetLabel(opts)))
	}

	in := make(chan []byte)
	out := batch.ValidateStream(ctx, in, cfg, batchOpts...)

	reader := func(ctx context.Context) error {
		defer close(in)
		sc := bufio.NewScanner(stdin)
		sc.Buffer(make([]byte, 0, 64*1024), int(cfg.MaxTotalSize)+1024)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			payload := append([]byte(nil), line...)
			select {
			case in <- payload:
			case <-ctx.Done():
				return nil
			}
		}
		return sc.Err()
	}

	var sawInvalid atomic.Bool
	writer := func(context.Context) error {
		enc := json.NewEncoder(stdout)
		for o := range out {
			line := reportLine{Name: fmt.Sprintf("doc[%d]", o.Index), Valid: o.Result.Valid}
			if o.Err != nil {
				line.Valid = false
				line.Error = o.Err.Error()
				sawInvalid.Store(true)
			} else if !o.Result.Valid {
				line.Violations = o.Result.Violations
				sawInvalid.Store(true)
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
		return nil
	}

	if err := lifecycle.Run(ctx, reader, writer); err != nil {
		logger.Error("stream aborted", "error", err)
		return 2
	}
	if sawInvalid.Load() {
		return 1
	}
	return 0
}

func presetLabel(opts options) string {
	if opts.preset != "" {
		return opts.preset
	}
	return "custom"
}

// reportLine is the JSON report emitted per payload.
type reportLine struct {
	Name       string              `json:"name"`
	Valid      bool                `json:"valid"`
	Error      string              `json:"error,omitempty"`
	Violations []jsonval.Violation `json:"violations,omitempty"`
}

func report(ctx context.Context, payloads [][]byte, names []string, cfg jsonval.Config, registry *jsonval.PatternRegistry, rec *metrics.Recorder, opts options, logger *slog.Logger, stdout io.Writer) int {
	batchOpts := []batch.Option{batch.Workers(opts.workers), batch.WithRegistry(registry)}
	if rec != nil {
		batchOpts = append(batchOpts, batch.WithRecorder(rec, presetLabel(opts)))
	}

	results, err := batch.ValidateTexts(ctx, payloads, cfg, batchOpts...)
	failures := map[int]error{}
	if err != nil {
		var batchErrs *batch.Errors
		if errors.As(err, &batchErrs) {
			for _, f := range batchErrs.Failures {
				failures[f.Index] = f.Err
			}
		}
	}

	enc := json.NewEncoder(stdout)
	exit := 0
	for i, res := range results {
		line := reportLine{Name: names[i], Valid: res.Valid}
		if ferr, failed := failures[i]; failed {
			line.Valid = false
			line.Error = ferr.Error()
			exit = 1
		} else if !res.Valid {
			line.Violations = res.Violations
			exit = 1
			logger.Info("payload rejected", "name", names[i], logz.Result(res))
		}
		if encErr := enc.Encode(line); encErr != nil {
			logger.Error("cannot write report", "error", encErr)
			return 2
		}
	}
	return exit
}
