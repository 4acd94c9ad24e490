package jsonval

import (
	"testing"
)

func TestDefaultRegistryDangerousKeys(t *testing.T) {
	reg := DefaultRegistry()
	blocked := []string{
		"__proto__", "constructor", "prototype",
		"eval", "exec", "execute", "system", "shell", "command", "script",
		"spawn", "fork", "require", "import", "include",
	}
	for _, key := range blocked {
		if !reg.MatchKey(key) {
			t.Errorf("expected %q to be blocked", key)
		}
	}
	allowed := []string{"name", "email", "scripted_total", "evaluation", "importance", "fork_count"}
	for _, key := range allowed {
		if reg.MatchKey(key) {
			t.Errorf("%q should not be blocked", key)
		}
	}
}

func TestMatchKeyNormalisation(t *testing.T) {
	reg := DefaultRegistry()
	// Case games, hyphen padding, and non-printable padding are normalised
	// away before matching.
	for _, key := range []string{"CONSTRUCTOR", "Eval", "ev​al", "\texec\t"} {
		if !reg.MatchKey(key) {
			t.Errorf("expected normalised %q to be blocked", key)
		}
	}
}

func TestMatchValuePriorityOrder(t *testing.T) {
	reg := DefaultRegistry()
	// Matches both script and SQL patterns; script wins because categories
	// are scanned in fixed priority order.
	text := "<script>x</script> UNION SELECT * FROM users"
	cat, _, ok := reg.MatchValue(text)
	if !ok {
		t.Fatal("expected a match")
	}
	if cat != CategoryScriptInjection {
		t.Errorf("category = %s, want script_injection", cat)
	}
}

func TestMatchValueSQLBeforePath(t *testing.T) {
	reg := DefaultRegistry()
	text := "1; DROP TABLE x; -- ../../etc/passwd"
	cat, _, ok := reg.MatchValue(text)
	if !ok {
		t.Fatal("expected a match")
	}
	if cat != CategorySQLInjection {
		t.Errorf("category = %s, want sql_injection", cat)
	}
}

func TestMatchValueNoMatch(t *testing.T) {
	reg := DefaultRegistry()
	for _, text := range []string{"hello world", "just a normal sentence.", "user@example.com"} {
		if _, _, ok := reg.MatchValue(text); ok {
			t.Errorf("%q should not match any category", text)
		}
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	reg := DefaultRegistry()
	if !reg.Match("<SCRIPT>x</SCRIPT>", CategoryScriptInjection) {
		t.Error("script matching should be case-insensitive")
	}
	if !reg.Match("UNION ALL SELECT 1", CategorySQLInjection) {
		t.Error("sql matching should be case-insensitive")
	}
}

func TestNewRegistryRejectsMalformedPattern(t *testing.T) {
	set := DefaultPatternSet()
	set.ScriptInjection = append(set.ScriptInjection, `([unclosed`)
	if _, err := NewRegistry(set); err == nil {
		t.Fatal("expected compile error for malformed pattern")
	}
}

func TestCustomRegistryExtendsDetection(t *testing.T) {
	set := DefaultPatternSet()
	set.SQLInjection = append(set.SQLInjection, `\bpg_sleep\s*\(`)
	reg := MustRegistry(set)

	v := Object(Member{"q", String("select pg_sleep(10)")})
	res := ValidateWith(v, Strict(), reg)
	if res.Valid {
		t.Fatal("custom pattern should flag the payload")
	}
	if res.Violations[0].Kind != SQLInjection {
		t.Errorf("kind = %s, want sql_injection", res.Violations[0].Kind)
	}
}

func TestRegistryConcurrentReads(t *testing.T) {
	reg := DefaultRegistry()
	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				reg.MatchKey("__proto__")
				reg.MatchValue("<script>x</script>")
				reg.MatchValue("plain text")
			}
		}()
	}
	for range 8 {
		<-done
	}
}
