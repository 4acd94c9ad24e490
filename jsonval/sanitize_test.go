package jsonval

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeEscapesHTML(t *testing.T) {
	v := Object(Member{"x", String(`<script>alert("hi") & 'bye'</script>`)})
	out := Sanitize(v, Default(), false)
	got, _ := out.Get("x")
	want := "&lt;script&gt;alert(&#34;hi&#34;) &amp; &#39;bye&#39;&lt;/script&gt;"
	if got.Str() != want {
		t.Errorf("sanitized = %q, want %q", got.Str(), want)
	}
}

func TestSanitizeStripsNulBytes(t *testing.T) {
	v := Object(Member{"x", String("a\x00b\x00c")})
	out := Sanitize(v, Default(), false)
	got, _ := out.Get("x")
	if got.Str() != "abc" {
		t.Errorf("sanitized = %q, want abc", got.Str())
	}
}

func TestSanitizeDropsDangerousKey(t *testing.T) {
	v := Object(
		Member{"__proto__", Object(Member{"polluted", Bool(true)})},
		Member{"safe", Number(1)},
	)
	out := Sanitize(v, Default(), true)
	if _, ok := out.Get("__proto__"); ok {
		t.Error("__proto__ should be dropped")
	}
	if got, ok := out.Get("safe"); !ok || got.Num() != 1 {
		t.Error("safe member should survive")
	}
}

func TestSanitizeEscapesDangerousKeyWhenKeeping(t *testing.T) {
	v := Object(Member{"<script>", Number(1)})
	out := Sanitize(v, Default(), false)
	if _, ok := out.Get("<script>"); ok {
		t.Error("raw key should not survive")
	}
	if got, ok := out.Get("&lt;script&gt;"); !ok || got.Num() != 1 {
		t.Errorf("expected escaped key, members = %+v", out.Members())
	}
}

func TestSanitizeTruncatesWithMarker(t *testing.T) {
	cfg := Default()
	cfg.MaxStringLen = 50
	v := Object(Member{"x", String(strings.Repeat("y", 200))})
	out := Sanitize(v, cfg, false)
	got, _ := out.Get("x")
	if n := utf8.RuneCountInString(got.Str()); n > 50 {
		t.Errorf("sanitized length = %d, want <= 50", n)
	}
	if !strings.HasSuffix(got.Str(), truncationMarker) {
		t.Errorf("expected truncation marker suffix, got %q", got.Str())
	}
}

func TestSanitizePreservesArrayShape(t *testing.T) {
	v := Array(Number(1), String("<b>"), Null(), Bool(false))
	out := Sanitize(v, Default(), true)
	if out.Kind() != KindArray || out.Len() != 4 {
		t.Fatalf("shape changed: kind=%s len=%d", out.Kind(), out.Len())
	}
	items := out.Items()
	if items[0].Num() != 1 || items[1].Str() != "&lt;b&gt;" || !items[2].IsNull() || items[3].Bool() {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestSanitizeNeverMutatesInput(t *testing.T) {
	v := Object(Member{"x", String("<script>")}, Member{"eval", Number(1)})
	_ = Sanitize(v, Default(), true)
	got, _ := v.Get("x")
	if got.Str() != "<script>" {
		t.Error("input string was mutated")
	}
	if _, ok := v.Get("eval"); !ok {
		t.Error("input member was removed")
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	cfg := Default()
	cfg.MaxStringLen = 40
	inputs := []Value{
		Object(Member{"x", String(`<a href="x">click & win</a>`)}),
		Object(Member{"x", String("AT&amp;T already escaped")}),
		Object(Member{"x", String(strings.Repeat("<&>", 100))}),
		Object(Member{"__proto__", Number(1)}, Member{"ok", String("fine")}),
		Array(String("plain"), Object(Member{"k", String("&#39;quoted&#39;")})),
		Null(),
	}
	for _, remove := range []bool{true, false} {
		for i, in := range inputs {
			once := Sanitize(in, cfg, remove)
			twice := Sanitize(once, cfg, remove)
			if !Equal(once, twice) {
				t.Errorf("input %d (remove=%v): sanitize is not idempotent\nonce:  %s\ntwice: %s",
					i, remove, canonicalJSON(once), canonicalJSON(twice))
			}
		}
	}
}

func TestSanitizeCyclicGraphTerminates(t *testing.T) {
	v := Object(Member{"a", Number(1)})
	v.Set("self", v)
	out := Sanitize(v, Default(), false)
	got, ok := out.Get("self")
	if !ok || !got.IsNull() {
		t.Errorf("cycle should degrade to null, got %+v", out.Members())
	}
}

func TestSanitizeScalarsUnchanged(t *testing.T) {
	for _, v := range []Value{Null(), Bool(true), Number(3.14)} {
		if out := Sanitize(v, Default(), true); !Equal(v, out) {
			t.Errorf("%s: scalar changed by sanitize", v.Kind())
		}
	}
}
