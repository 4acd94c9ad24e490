package jsonval

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// Category identifies one threat-pattern group in a PatternRegistry.
type Category uint8

const (
	// CategoryDangerousKey patterns are applied to object keys only.
	CategoryDangerousKey Category = iota
	// CategoryScriptInjection patterns are applied to string values.
	CategoryScriptInjection
	// CategorySQLInjection patterns are applied to string values.
	CategorySQLInjection
	// CategoryPathTraversal patterns are applied to string values.
	CategoryPathTraversal
)

// String returns the stable snake_case name of the category.
func (c Category) String() string {
	switch c {
	case CategoryDangerousKey:
		return "dangerous_key"
	case CategoryScriptInjection:
		return "script_injection"
	case CategorySQLInjection:
		return "sql_injection"
	case CategoryPathTraversal:
		return "path_traversal"
	default:
		return "unknown"
	}
}

// violationKind maps a value category to the ViolationKind it reports under.
func (c Category) violationKind() ViolationKind {
	switch c {
	case CategoryScriptInjection:
		return ScriptInjection
	case CategorySQLInjection:
		return SQLInjection
	default:
		return PathTraversal
	}
}

// PatternSet holds the raw regular expressions for each category. All
// patterns are compiled case-insensitively. Key patterns match against
// normalised keys (see MatchKey); value patterns match raw string leaves.
type PatternSet struct {
	DangerousKeys   []string `yaml:"dangerous_keys"`
	ScriptInjection []string `yaml:"script_injection"`
	SQLInjection    []string `yaml:"sql_injection"`
	PathTraversal   []string `yaml:"path_traversal"`
}

// DefaultPatternSet returns the built-in threat patterns.
func DefaultPatternSet() PatternSet {
	return PatternSet{
		DangerousKeys: []string{
			`^__proto__$`,
			`^constructor$`,
			`^prototype$`,
			`^(eval|exec|execute|system|shell|command|script|spawn|fork)$`,
			`^(require|import|include)$`,
			`^on(load|error|click|mouseover|focus|blur|submit)$`,
			`<script`,
			`javascript:`,
		},
		ScriptInjection: []string{
			`<script[^>]*>`,
			`</script`,
			`javascript\s*:`,
			`vbscript\s*:`,
			`on(load|error|click|mouseover|focus|blur|submit)\s*=`,
			`<(iframe|embed|object|applet)\b`,
			`eval\s*\(`,
			`expression\s*\(`,
			`document\.(cookie|write|location)`,
			`window\.(location|open)`,
			`data:text/html`,
			`<img[^>]+src\s*=`,
		},
		SQLInjection: []string{
			`union\s+(all\s+)?select`,
			`\b(select\s+[\w*,\s]+\s+from|insert\s+into|delete\s+from|update\s+\w+\s+set)\b`,
			`\b(drop|truncate|alter)\s+(table|database|index|view)\b`,
			`'\s*(or|and)\s+[\w'"]+\s*=`,
			`\b(or|and)\s+\d+\s*=\s*\d+`,
			`(;|')\s*--`,
			`\bexec(ute)?\s+(sp_|xp_)`,
			`\bwaitfor\s+delay\b`,
			`\bsleep\s*\(\s*\d+\s*\)`,
			`\bbenchmark\s*\(`,
		},
		PathTraversal: []string{
			`\.\./`,
			`\.\.\\`,
			`%2e%2e(%2f|%5c|/|\\)`,
			`\.\.(%2f|%5c)`,
			`%252e%252e`,
			`/etc/(passwd|shadow|hosts)`,
			`\\windows\\system32`,
			`/proc/self/`,
			`file://`,
		},
	}
}

// PatternRegistry is an immutable, compiled-once collection of categorized
// threat patterns. A registry is safe for concurrent read use; there is no
// way to mutate it after construction. The zero value is not usable —
// construct one with NewRegistry or use the package default.
type PatternRegistry struct {
	categories [4][]*regexp.Regexp
}

// NewRegistry compiles a pattern set into a registry. Every pattern is
// compiled case-insensitively. Compilation fails only on a malformed
// pattern, which is a programmer (or pattern-file) error, never a runtime
// input condition.
func NewRegistry(set PatternSet) (*PatternRegistry, error) {
	reg := &PatternRegistry{}
	for cat, patterns := range map[Category][]string{
		CategoryDangerousKey:    set.DangerousKeys,
		CategoryScriptInjection: set.ScriptInjection,
		CategorySQLInjection:    set.SQLInjection,
		CategoryPathTraversal:   set.PathTraversal,
	} {
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, fmt.Errorf("jsonval: bad %s pattern %q: %w", cat, p, err)
			}
			compiled = append(compiled, re)
		}
		reg.categories[cat] = compiled
	}
	return reg, nil
}

// MustRegistry is NewRegistry that panics on compile failure. Intended for
// package-level construction of fixed pattern sets.
func MustRegistry(set PatternSet) *PatternRegistry {
	reg, err := NewRegistry(set)
	if err != nil {
		panic(err)
	}
	return reg
}

// defaultRegistry compiles the built-in pattern set exactly once.
var defaultRegistry = sync.OnceValue(func() *PatternRegistry {
	return MustRegistry(DefaultPatternSet())
})

// DefaultRegistry returns the shared registry compiled from
// DefaultPatternSet. It is built on first use and reused for the lifetime
// of the process.
func DefaultRegistry() *PatternRegistry {
	return defaultRegistry()
}

// Match reports whether text matches any pattern in the given category.
// Dangerous-key matching should go through MatchKey instead, which applies
// key normalisation first.
func (r *PatternRegistry) Match(text string, cat Category) bool {
	for _, re := range r.categories[cat] {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchValue scans the value categories in fixed priority order — script
// injection, then SQL injection, then path traversal — and returns the
// first category with a matching pattern along with the pattern's index.
// A string is reported under at most one category even when several would
// match; the first match wins, which bounds report size.
func (r *PatternRegistry) MatchValue(text string) (Category, int, bool) {
	for _, cat := range [...]Category{CategoryScriptInjection, CategorySQLInjection, CategoryPathTraversal} {
		for i, re := range r.categories[cat] {
			if re.MatchString(text) {
				return cat, i, true
			}
		}
	}
	return 0, 0, false
}

// MatchKey reports whether an object key matches a dangerous-key pattern.
// The key is normalised first: non-ASCII and non-printable runes are
// stripped, the rest is lowercased, and hyphens become underscores, so
// homoglyph padding and case games do not evade the check.
func (r *PatternRegistry) MatchKey(key string) bool {
	return r.Match(normalizeKey(key), CategoryDangerousKey)
}

func normalizeKey(key string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, key)
	return strings.ToLower(strings.ReplaceAll(cleaned, "-", "_"))
}
