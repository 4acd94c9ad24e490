// Package testkit provides lightweight test helpers for secval-go packages.
// It has no dependencies on other secval packages beyond jsonval, whose
// values the payload builders produce.
package testkit

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/ai8future/secval-go/jsonval"
)

// testWriter is an io.Writer that forwards all writes to testing.TB.Log.
type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// NewLogger returns a *slog.Logger that writes JSON output to t.Log so that
// log lines appear alongside test output and are suppressed on success unless
// -v is passed.  The level is set to Debug so every message is captured.
func NewLogger(t testing.TB) *slog.Logger {
	t.Helper()
	w := &testWriter{t: t}
	handler := slog.NewJSONHandler(io.Writer(w), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler)
}

// SetEnv sets the supplied environment variables and registers a t.Cleanup to
// unset them after the test. This is the building block for test config: pair
// it with config.MustLoad[T]() in your test to load typed configuration.
//
// Example:
//
//	testkit.SetEnv(t, map[string]string{"SECVAL_MAX_DEPTH": "5"})
//	cfg := config.LimitsFromEnv()
func SetEnv(t testing.TB, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range envs {
			os.Unsetenv(k)
		}
	})
}

// NestedObject builds a chain of single-key objects of the given depth,
// ending in a string leaf: {"a": {"a": ... "leaf"}}. Depth 0 returns the
// leaf itself. Useful for probing depth limits.
func NestedObject(depth int) jsonval.Value {
	v := jsonval.String("leaf")
	for range depth {
		v = jsonval.Object(jsonval.Member{Key: "a", Value: v})
	}
	return v
}

// NestedArray builds a chain of single-element arrays of the given depth,
// ending in a string leaf.
func NestedArray(depth int) jsonval.Value {
	v := jsonval.String("leaf")
	for range depth {
		v = jsonval.Array(v)
	}
	return v
}

// NestedJSONText returns the serialized form of a NestedObject of the
// given depth. Useful for exercising the text-level entry points.
func NestedJSONText(depth int) []byte {
	var b strings.Builder
	for range depth {
		b.WriteString(`{"a":`)
	}
	b.WriteString(`"leaf"`)
	for range depth {
		b.WriteByte('}')
	}
	return []byte(b.String())
}

// WideObject builds a flat object with n distinct keys ("k0".."k<n-1>"),
// each holding a small number. Useful for probing key-count limits.
func WideObject(n int) jsonval.Value {
	members := make([]jsonval.Member, n)
	for i := range n {
		members[i] = jsonval.Member{Key: "k" + strconv.Itoa(i), Value: jsonval.Number(float64(i))}
	}
	return jsonval.Object(members...)
}

// LongString returns a string of n repeated 'x' runes wrapped in a Value.
func LongString(n int) jsonval.Value {
	return jsonval.String(strings.Repeat("x", n))
}

// CleanObject returns a small object that passes validation under every
// built-in preset.
func CleanObject() jsonval.Value {
	return jsonval.Object(
		jsonval.Member{Key: "name", Value: jsonval.String("widget")},
		jsonval.Member{Key: "count", Value: jsonval.Number(3)},
		jsonval.Member{Key: "active", Value: jsonval.Bool(true)},
	)
}
