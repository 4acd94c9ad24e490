package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	secval "github.com/ai8future/secval-go"
)

func TestMain(m *testing.M) {
	secval.RequireMajor(1)
	os.Exit(m.Run())
}

func runCheck(t *testing.T, args []string, stdin string) (int, string) {
	t.Helper()
	// run mutates SECVAL_PRESET when -preset is given; keep tests isolated.
	t.Setenv("SECVAL_PRESET", "")
	os.Unsetenv("SECVAL_PRESET")

	var out bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out)
	return code, out.String()
}

func TestCleanPayloadFromStdin(t *testing.T) {
	code, out := runCheck(t, nil, `{"name":"widget"}`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\noutput: %s", code, out)
	}
	var line struct {
		Name  string `json:"name"`
		Valid bool   `json:"valid"`
	}
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if line.Name != "<stdin>" || !line.Valid {
		t.Errorf("report = %+v", line)
	}
}

func TestViolationsExitOne(t *testing.T) {
	code, out := runCheck(t, []string{"-preset", "strict"}, `{"__proto__":null}`)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\noutput: %s", code, out)
	}
	if !strings.Contains(out, "dangerous_key") {
		t.Errorf("report should name the violation kind: %s", out)
	}
}

func TestMalformedPayloadExitOne(t *testing.T) {
	code, _ := runCheck(t, nil, `{not json`)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestBadFlagExitTwo(t *testing.T) {
	code, _ := runCheck(t, []string{"-no-such-flag"}, "")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestMissingFileExitTwo(t *testing.T) {
	code, _ := runCheck(t, []string{filepath.Join(t.TempDir(), "absent.json")}, "")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestHashMode(t *testing.T) {
	// sha256 of the canonical form {"a":1,"b":2}
	const want = "43258cff783fe7036d8a43033f830adfc60ec037382473548ac742b888292777"
	code, out := runCheck(t, []string{"-hash"}, `{"b": 2, "a": 1}`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(out) != want {
		t.Errorf("digest = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestSanitizeMode(t *testing.T) {
	code, out := runCheck(t, []string{"-sanitize"}, `{"x":"<b>hi</b>","__proto__":1}`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\noutput: %s", code, out)
	}
	if strings.Contains(out, "__proto__") {
		t.Errorf("dangerous key survived sanitization: %s", out)
	}
	if !strings.Contains(out, `&lt;b&gt;`) {
		t.Errorf("markup not escaped: %s", out)
	}
}

func TestCanonicalMode(t *testing.T) {
	code, out := runCheck(t, []string{"-canonical"}, "{\n \"b\": 2,\n \"a\": 1\n}")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(out) != `{"a":1,"b":2}` {
		t.Errorf("canonical output = %q", out)
	}
}

func TestMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(`{"a":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(`{"q":"' OR 1=1 --"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	code, out := runCheck(t, []string{"-preset", "strict", good, bad}, "")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\noutput: %s", code, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 report lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"valid":true`) {
		t.Errorf("good file line = %s", lines[0])
	}
	if !strings.Contains(lines[1], "sql_injection") {
		t.Errorf("bad file line = %s", lines[1])
	}
}

func TestStreamMode(t *testing.T) {
	input := `{"a":1}
{"__proto__":null}

{broken
`
	code, out := runCheck(t, []string{"-stream", "-preset", "strict"}, input)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\noutput: %s", code, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 report lines (blank line skipped), got %d:\n%s", len(lines), out)
	}
	var valid, invalid, failed int
	for _, l := range lines {
		switch {
		case strings.Contains(l, `"error"`):
			failed++
		case strings.Contains(l, `"valid":true`):
			valid++
		default:
			invalid++
		}
	}
	if valid != 1 || invalid != 1 || failed != 1 {
		t.Errorf("valid/invalid/failed = %d/%d/%d, want 1/1/1\n%s", valid, invalid, failed, out)
	}
}

func TestStreamModeEmptyInput(t *testing.T) {
	code, out := runCheck(t, []string{"-stream"}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\noutput: %s", code, out)
	}
	if strings.TrimSpace(out) != "" {
		t.Errorf("expected no report lines, got %q", out)
	}
}

func TestTransformRejectsMultiplePayloads(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	for _, f := range []string{a, b} {
		if err := os.WriteFile(f, []byte(`{}`), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	code, _ := runCheck(t, []string{"-hash", a, b}, "")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}
