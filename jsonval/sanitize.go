package jsonval

import (
	"html"
	"strings"
	"unicode/utf8"
)

// truncationMarker is appended to sanitized strings that were cut down to
// the configured length.
const truncationMarker = "[truncated]"

// sanitizer carries the per-call state of one sanitization pass.
type sanitizer struct {
	cfg             Config
	reg             *PatternRegistry
	removeDangerous bool

	openObjects map[*objectNode]struct{}
	openArrays  map[*arrayNode]struct{}
}

// clean returns a sanitized copy of v. The input tree is never mutated and
// the output never aliases the input's containers.
func (s *sanitizer) clean(v Value) Value {
	switch v.Kind() {
	case KindObject:
		// A cyclic graph cannot be copied into a finite tree; the repeated
		// container degrades to null. Text-derived trees never hit this.
		if _, open := s.openObjects[v.obj]; open {
			return Null()
		}
		s.openObjects[v.obj] = struct{}{}
		defer delete(s.openObjects, v.obj)

		out := Object()
		for _, m := range v.Members() {
			key := m.Key
			if !s.cfg.AllowDangerousKeys && s.reg.MatchKey(key) {
				if s.removeDangerous {
					continue
				}
				key = escapeText(key)
			}
			out.Set(key, s.clean(m.Value))
		}
		return out

	case KindArray:
		if _, open := s.openArrays[v.arr]; open {
			return Null()
		}
		s.openArrays[v.arr] = struct{}{}
		defer delete(s.openArrays, v.arr)

		items := v.Items()
		out := make([]Value, len(items))
		for i, item := range items {
			out[i] = s.clean(item)
		}
		return Array(out...)

	case KindString:
		return String(sanitizeString(v.Str(), s.cfg.MaxStringLen))

	default:
		return v
	}
}

// sanitizeString HTML-escapes a string leaf, strips NUL bytes, and
// truncates it to maxLen characters. The result is a fixed point: running
// the function on its own output returns the output unchanged.
//
// Escaping goes through a normalise-then-escape cycle (unescape first, then
// re-escape) so that already-escaped text is not double-escaped. Truncation
// happens on the escaped form, never cuts an entity in half, and counts the
// marker against the limit, so the second pass sees a string within bounds
// and leaves it alone.
func sanitizeString(str string, maxLen int) string {
	esc := escapeText(str)
	if utf8.RuneCountInString(esc) <= maxLen {
		return esc
	}
	return truncateEscaped(esc, maxLen)
}

// escapeText normalises then HTML-escapes text, dropping NUL bytes in
// between (numeric entities that decode to NUL are dropped too).
func escapeText(str string) string {
	raw := html.UnescapeString(str)
	raw = strings.ReplaceAll(raw, "\x00", "")
	return html.EscapeString(raw)
}

// truncateEscaped cuts an escaped string down to maxLen runes including the
// truncation marker. Escape entities ("&amp;" and friends) are treated as
// atomic so a cut never produces a half entity, which would break the
// fixed-point property of sanitizeString.
func truncateEscaped(esc string, maxLen int) string {
	budget := maxLen - len(truncationMarker)
	marker := truncationMarker
	if budget < 0 {
		budget = maxLen
		marker = ""
	}

	var b strings.Builder
	used := 0
	i := 0
	for i < len(esc) {
		// Entities are consumed whole. html.EscapeString only emits short
		// entities, so a ';' is always within a few bytes of the '&'.
		if esc[i] == '&' {
			end := strings.IndexByte(esc[i:min(i+8, len(esc))], ';')
			if end >= 0 {
				entity := esc[i : i+end+1]
				n := utf8.RuneCountInString(entity)
				if used+n > budget {
					break
				}
				b.WriteString(entity)
				used += n
				i += len(entity)
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(esc[i:])
		if used+1 > budget {
			break
		}
		b.WriteString(esc[i : i+size])
		used++
		i += size
	}
	b.WriteString(marker)
	return b.String()
}
