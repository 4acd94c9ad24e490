package jsonval

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// walker carries the per-call state of one validation pass. It is created
// per call and never shared; the registry and config it references are
// read-only.
type walker struct {
	cfg        Config
	reg        *PatternRegistry
	violations []Violation

	// Containers currently open on the recursion stack, by identity.
	// A container reached while already open means the host-language graph
	// has a cycle. Text-derived trees can never trip this (JSON cannot
	// encode a cycle); it defends the Validate entry point against
	// programmatically built graphs.
	openObjects map[*objectNode]struct{}
	openArrays  map[*arrayNode]struct{}
}

func newWalker(cfg Config, reg *PatternRegistry) *walker {
	return &walker{
		cfg:         cfg,
		reg:         reg,
		openObjects: make(map[*objectNode]struct{}),
		openArrays:  make(map[*arrayNode]struct{}),
	}
}

func (w *walker) add(kind ViolationKind, path, message, snippet string) {
	w.violations = append(w.violations, Violation{
		Kind:     kind,
		Message:  message,
		Path:     path,
		Snippet:  snippet,
		Severity: kind.Severity(),
	})
}

// walk validates one node pre-order. depth is the container nesting level:
// the root container is at depth 1, so a chain of MaxDepth containers is
// the deepest tree that passes. Structural overruns are recorded and
// traversal continues; only depth overruns and cycles stop descent into the
// offending branch, and siblings elsewhere are still visited.
func (w *walker) walk(v Value, path string, depth int) {
	switch v.Kind() {
	case KindObject:
		if depth > w.cfg.MaxDepth {
			w.add(DepthLimitExceeded, path,
				fmt.Sprintf("nesting depth %d exceeds maximum %d", depth, w.cfg.MaxDepth), "")
			return
		}
		if _, open := w.openObjects[v.obj]; open {
			w.add(CircularReference, path, "object is reachable from inside itself", "")
			return
		}
		w.openObjects[v.obj] = struct{}{}
		defer delete(w.openObjects, v.obj)

		members := v.Members()
		if len(members) > w.cfg.MaxKeys {
			w.add(SizeLimitExceeded, path,
				fmt.Sprintf("object has %d keys, limit is %d", len(members), w.cfg.MaxKeys), "")
		}
		for _, m := range members {
			childPath := path + "." + m.Key
			w.checkKey(m.Key, childPath)
			w.walk(m.Value, childPath, depth+1)
		}

	case KindArray:
		if depth > w.cfg.MaxDepth {
			w.add(DepthLimitExceeded, path,
				fmt.Sprintf("nesting depth %d exceeds maximum %d", depth, w.cfg.MaxDepth), "")
			return
		}
		if _, open := w.openArrays[v.arr]; open {
			w.add(CircularReference, path, "array is reachable from inside itself", "")
			return
		}
		w.openArrays[v.arr] = struct{}{}
		defer delete(w.openArrays, v.arr)

		items := v.Items()
		if len(items) > w.cfg.MaxArrayLen {
			w.add(SizeLimitExceeded, path,
				fmt.Sprintf("array has %d elements, limit is %d", len(items), w.cfg.MaxArrayLen), "")
		}
		for i, item := range items {
			w.walk(item, path+"["+strconv.Itoa(i)+"]", depth+1)
		}

	case KindString:
		w.checkString(v.Str(), path)

		// Null, bool, and number leaves can never violate anything.
	}
}

// checkKey validates one object key against the dangerous-key patterns.
// The check only runs in strict mode and is disabled entirely by
// AllowDangerousKeys, regardless of mode.
func (w *walker) checkKey(key, path string) {
	if w.cfg.AllowDangerousKeys || !w.cfg.StrictMode {
		return
	}
	if w.reg.MatchKey(key) {
		w.add(DangerousKey, path,
			fmt.Sprintf("key %q matches a dangerous-key pattern", truncateSnippet(key)),
			truncateSnippet(key))
	}
}

// checkString validates one string leaf. Oversized strings short-circuit:
// injection patterns never run against them, which bounds the worst-case
// regexp cost an attacker can buy with a huge string. Outside strict mode
// only the size check applies.
func (w *walker) checkString(s, path string) {
	if length := utf8.RuneCountInString(s); length > w.cfg.MaxStringLen {
		w.add(SizeLimitExceeded, path,
			fmt.Sprintf("string length %d exceeds limit %d", length, w.cfg.MaxStringLen), "")
		return
	}
	if !w.cfg.StrictMode {
		return
	}
	if cat, idx, ok := w.reg.MatchValue(s); ok {
		w.add(cat.violationKind(), path,
			fmt.Sprintf("%s pattern %d matched", cat, idx), truncateSnippet(s))
	}
	if !utf8.ValidString(s) {
		w.add(InvalidUnicode, path, "string is not valid UTF-8", "")
	}
	if strings.IndexByte(s, 0) >= 0 {
		w.add(BinaryData, path, "string contains a NUL byte", "")
	}
}
