package jsonval

import (
	"fmt"
)

// SecurityError is returned by Serialize and Deserialize when strict mode
// rejects a payload. It carries the complete violation list so callers can
// report every problem at once. Like the rest of this package's errors it
// is module-local; the toolkit errors package converts it to a transport-
// facing error when one is needed.
type SecurityError struct {
	Violations []Violation
}

func (e *SecurityError) Error() string {
	if len(e.Violations) == 0 {
		return "jsonval: payload rejected"
	}
	first := e.Violations[0]
	return fmt.Sprintf("jsonval: payload rejected: %d violation(s), first is %s at %s",
		len(e.Violations), first.Kind, first.Path)
}

// Validate walks v depth-first and returns every violation found. It never
// fails: structural overruns, injection matches, and encoding problems are
// all accumulated so the caller sees the complete picture in one pass. Uses
// the default pattern registry.
func Validate(v Value, cfg Config) Result {
	return ValidateWith(v, cfg, DefaultRegistry())
}

// ValidateWith is Validate with an explicit pattern registry.
func ValidateWith(v Value, cfg Config, reg *PatternRegistry) Result {
	w := newWalker(cfg, reg)
	w.walk(v, "$", 1)
	return newResult(w.violations)
}

// ValidateText validates a raw JSON document. The total byte size is
// checked against cfg.MaxTotalSize BEFORE parsing: an oversized payload is
// reported as a single size violation at $ and is never handed to the
// parser, which is the one deliberate short-circuit in the validation path.
// The error is non-nil only for text that is not well-formed JSON (wrapping
// ErrInvalidJSON).
func ValidateText(text []byte, cfg Config) (Result, error) {
	return ValidateTextWith(text, cfg, DefaultRegistry())
}

// ValidateTextWith is ValidateText with an explicit pattern registry.
func ValidateTextWith(text []byte, cfg Config, reg *PatternRegistry) (Result, error) {
	if int64(len(text)) > cfg.MaxTotalSize {
		return newResult([]Violation{{
			Kind:     SizeLimitExceeded,
			Message:  fmt.Sprintf("payload is %d bytes, limit is %d", len(text), cfg.MaxTotalSize),
			Path:     "$",
			Severity: SizeLimitExceeded.Severity(),
		}}), nil
	}
	v, err := Parse(text)
	if err != nil {
		return Result{}, err
	}
	return ValidateWith(v, cfg, reg), nil
}

// Sanitize returns a cleaned copy of v: strings are HTML-escaped, stripped
// of NUL bytes, and truncated to cfg.MaxStringLen; dangerous object keys
// are dropped (removeDangerous true) or escaped in place (false); arrays
// keep their order and length. The input is never mutated and the pass is
// idempotent. Uses the default pattern registry.
func Sanitize(v Value, cfg Config, removeDangerous bool) Value {
	return SanitizeWith(v, cfg, DefaultRegistry(), removeDangerous)
}

// SanitizeWith is Sanitize with an explicit pattern registry.
func SanitizeWith(v Value, cfg Config, reg *PatternRegistry, removeDangerous bool) Value {
	s := &sanitizer{
		cfg:             cfg,
		reg:             reg,
		removeDangerous: removeDangerous,
		openObjects:     make(map[*objectNode]struct{}),
		openArrays:      make(map[*arrayNode]struct{}),
	}
	return s.clean(v)
}

// Serialize validates v and returns its canonical serialized form. With
// sanitizeFirst, the tree is sanitized (dangerous keys removed) before
// validation. Under strict mode any violation aborts with *SecurityError.
// Outside strict mode the canonical text is returned unconditionally and
// any violations are discarded: a caller that needs the warnings must run
// Validate itself before serializing.
func Serialize(v Value, cfg Config, sanitizeFirst bool) (string, error) {
	if sanitizeFirst {
		v = Sanitize(v, cfg, true)
	}
	if cfg.StrictMode {
		if res := Validate(v, cfg); !res.Valid {
			return "", &SecurityError{Violations: res.Violations}
		}
	}
	return string(canonicalJSON(v)), nil
}

// Deserialize parses and validates a raw JSON document. A payload over
// cfg.MaxTotalSize is rejected in every mode — parsing it at all is the
// risk the limit exists to prevent. Malformed JSON fails with a wrapped
// ErrInvalidJSON. Under strict mode any violation aborts with
// *SecurityError carrying the full list. Outside strict mode the parsed
// tree is returned regardless of violations; with sanitizeAfter it is
// sanitized first.
func Deserialize(text []byte, cfg Config, sanitizeAfter bool) (Value, error) {
	if int64(len(text)) > cfg.MaxTotalSize {
		return Value{}, &SecurityError{Violations: []Violation{{
			Kind:     SizeLimitExceeded,
			Message:  fmt.Sprintf("payload is %d bytes, limit is %d", len(text), cfg.MaxTotalSize),
			Path:     "$",
			Severity: SizeLimitExceeded.Severity(),
		}}}
	}
	v, err := Parse(text)
	if err != nil {
		return Value{}, err
	}
	if cfg.StrictMode {
		if res := Validate(v, cfg); !res.Valid {
			return Value{}, &SecurityError{Violations: res.Violations}
		}
		return v, nil
	}
	if sanitizeAfter {
		return Sanitize(v, cfg, true), nil
	}
	return v, nil
}
