package jsonval

// Severity ranks how dangerous a violation is. Severity is fixed per
// violation kind; callers never choose it.
type Severity uint8

const (
	// SeverityLow is reserved for informational findings.
	SeverityLow Severity = iota
	// SeverityMedium covers resource-limit overruns.
	SeverityMedium
	// SeverityHigh covers structural and encoding problems.
	SeverityHigh
	// SeverityCritical covers injection attempts and structural attacks.
	SeverityCritical
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as its string name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ViolationKind is the closed set of problems the walker can report.
type ViolationKind uint8

const (
	// SizeLimitExceeded means a string, array, object, or the whole payload
	// is over its configured limit.
	SizeLimitExceeded ViolationKind = iota
	// DepthLimitExceeded means nesting went past MaxDepth.
	DepthLimitExceeded
	// DangerousKey means an object key matched a prototype-pollution or
	// framework-internal pattern.
	DangerousKey
	// ScriptInjection means a string leaf matched a script-injection pattern.
	ScriptInjection
	// SQLInjection means a string leaf matched a SQL-injection pattern.
	SQLInjection
	// PathTraversal means a string leaf matched a path-traversal pattern.
	PathTraversal
	// CircularReference means a container was reached from inside itself.
	CircularReference
	// InvalidUnicode means a string leaf is not valid UTF-8.
	InvalidUnicode
	// BinaryData means a string leaf contains a NUL byte.
	BinaryData
)

// String returns the stable snake_case name of the kind, suitable for logs
// and metric labels.
func (k ViolationKind) String() string {
	switch k {
	case SizeLimitExceeded:
		return "size_limit_exceeded"
	case DepthLimitExceeded:
		return "depth_limit_exceeded"
	case DangerousKey:
		return "dangerous_key"
	case ScriptInjection:
		return "script_injection"
	case SQLInjection:
		return "sql_injection"
	case PathTraversal:
		return "path_traversal"
	case CircularReference:
		return "circular_reference"
	case InvalidUnicode:
		return "invalid_unicode"
	case BinaryData:
		return "binary_data"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the kind as its string name.
func (k ViolationKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Severity returns the fixed severity for this kind.
func (k ViolationKind) Severity() Severity {
	switch k {
	case ScriptInjection, SQLInjection, PathTraversal, DangerousKey, CircularReference:
		return SeverityCritical
	case DepthLimitExceeded, InvalidUnicode, BinaryData:
		return SeverityHigh
	case SizeLimitExceeded:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Violation is one detected problem. Snippet is the offending string value
// truncated to at most 100 characters — never the full payload, so a
// violation list is safe to forward to audit logs without re-injecting the
// attack content.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Message  string        `json:"message"`
	Path     string        `json:"path"`
	Snippet  string        `json:"snippet,omitempty"`
	Severity Severity      `json:"severity"`
}

// Result is the outcome of a validation pass. Violations are in traversal
// order: pre-order, object keys before their values, array elements by
// index. Valid is true exactly when Violations is empty.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

func newResult(violations []Violation) Result {
	return Result{Valid: len(violations) == 0, Violations: violations}
}

// snippetLimit caps how much of an offending value a Violation may carry.
const snippetLimit = 100

// truncateSnippet returns at most snippetLimit runes of s.
func truncateSnippet(s string) string {
	count := 0
	for i := range s {
		if count == snippetLimit {
			return s[:i]
		}
		count++
	}
	return s
}
