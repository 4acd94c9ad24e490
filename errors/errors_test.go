package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"

	"github.com/ai8future/secval-go/jsonval"
)

func TestFactoryCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      *ServiceError
		httpCode int
		grpcCode codes.Code
	}{
		{"validation", ValidationError("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{"malformed", MalformedError("not json"), http.StatusBadRequest, codes.InvalidArgument},
		{"too_large", PayloadTooLargeError("big"), http.StatusRequestEntityTooLarge, codes.ResourceExhausted},
		{"internal", InternalError("boom"), http.StatusInternalServerError, codes.Internal},
	}
	for _, c := range cases {
		if c.err.HTTPCode != c.httpCode {
			t.Errorf("%s: HTTPCode = %d, want %d", c.name, c.err.HTTPCode, c.httpCode)
		}
		if c.err.GRPCCode != c.grpcCode {
			t.Errorf("%s: GRPCCode = %v, want %v", c.name, c.err.GRPCCode, c.grpcCode)
		}
		if got := c.err.GRPCStatus().Code(); got != c.grpcCode {
			t.Errorf("%s: GRPCStatus().Code() = %v, want %v", c.name, got, c.grpcCode)
		}
	}
}

func TestPayloadRejectedCarriesViolations(t *testing.T) {
	violations := []jsonval.Violation{
		{Kind: jsonval.ScriptInjection, Path: "$.x", Severity: jsonval.SeverityCritical},
		{Kind: jsonval.SQLInjection, Path: "$.q", Severity: jsonval.SeverityCritical},
	}
	err := PayloadRejectedError(violations)
	if len(err.Violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(err.Violations))
	}
	if !strings.Contains(err.Error(), "2 validation violation(s)") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWithViolationsDoesNotMutateReceiver(t *testing.T) {
	base := ValidationError("bad")
	decorated := base.WithViolations([]jsonval.Violation{{Kind: jsonval.DangerousKey}})
	if len(base.Violations) != 0 {
		t.Error("receiver was mutated")
	}
	if len(decorated.Violations) != 1 {
		t.Error("decorated copy missing violations")
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("wrapped").WithCause(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestFromValidationSecurityError(t *testing.T) {
	_, err := jsonval.Deserialize(
		[]byte(`{"x":"<script>alert(1)</script>"}`), jsonval.Strict(), false)
	se := FromValidation(err)
	if se == nil {
		t.Fatal("expected ServiceError")
	}
	if se.HTTPCode != http.StatusBadRequest || se.GRPCCode != codes.InvalidArgument {
		t.Errorf("codes = %d/%v, want 400/InvalidArgument", se.HTTPCode, se.GRPCCode)
	}
	if len(se.Violations) != 1 || se.Violations[0].Kind != jsonval.ScriptInjection {
		t.Errorf("violations = %+v", se.Violations)
	}
	if !stderrors.Is(se, err) {
		t.Error("original error should remain in the chain")
	}
}

func TestFromValidationOversizedMapsTo413(t *testing.T) {
	cfg := jsonval.Strict()
	cfg.MaxTotalSize = 8
	_, err := jsonval.Deserialize([]byte(`{"a":"0123456789"}`), cfg, false)
	se := FromValidation(err)
	if se == nil {
		t.Fatal("expected ServiceError")
	}
	if se.HTTPCode != http.StatusRequestEntityTooLarge {
		t.Errorf("HTTPCode = %d, want 413", se.HTTPCode)
	}
	if se.GRPCCode != codes.ResourceExhausted {
		t.Errorf("GRPCCode = %v, want ResourceExhausted", se.GRPCCode)
	}
}

func TestFromValidationInvalidJSON(t *testing.T) {
	_, err := jsonval.Deserialize([]byte(`{broken`), jsonval.Strict(), false)
	se := FromValidation(err)
	if se == nil || se.HTTPCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed input, got %+v", se)
	}
}

func TestFromValidationNil(t *testing.T) {
	if FromValidation(nil) != nil {
		t.Error("nil in, nil out")
	}
}

func TestFromValidationPassthrough(t *testing.T) {
	orig := PayloadTooLargeError("big")
	if got := FromValidation(orig); got != orig {
		t.Error("existing ServiceError should pass through unchanged")
	}
}

func TestProblemDetailIncludesViolations(t *testing.T) {
	violations := []jsonval.Violation{{
		Kind:     jsonval.SQLInjection,
		Message:  "sql_injection pattern 3 matched",
		Path:     "$.name",
		Snippet:  "Robert'); DROP TABLE",
		Severity: jsonval.SeverityCritical,
	}}
	pd := PayloadRejectedError(violations).ProblemDetail("/ingest")

	raw, err := json.Marshal(pd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != float64(http.StatusBadRequest) {
		t.Errorf("status = %v", decoded["status"])
	}
	if decoded["title"] != "Payload Rejected" {
		t.Errorf("title = %v", decoded["title"])
	}
	if decoded["instance"] != "/ingest" {
		t.Errorf("instance = %v", decoded["instance"])
	}
	vs, ok := decoded["violations"].([]any)
	if !ok || len(vs) != 1 {
		t.Fatalf("violations extension = %v", decoded["violations"])
	}
	first := vs[0].(map[string]any)
	if first["path"] != "$.name" {
		t.Errorf("violation path = %v", first["path"])
	}
}

func TestProblemDetailTypeURI(t *testing.T) {
	pd := PayloadTooLargeError("big").ProblemDetail("")
	if pd.Type != typeBaseURI+"payload-too-large" {
		t.Errorf("type = %q", pd.Type)
	}
	custom := ValidationError("bad").WithType("https://example.com/custom").ProblemDetail("")
	if custom.Type != "https://example.com/custom" {
		t.Errorf("custom type = %q", custom.Type)
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(ValidationError, "field %s is %d", "x", 7)
	if err.Error() != "field x is 7" {
		t.Errorf("message = %q", err.Error())
	}
}
