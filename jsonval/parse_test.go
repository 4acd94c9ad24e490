package jsonval

import (
	"errors"
	"testing"
)

func mustParse(t *testing.T, s string) Value {
	t.Helper()
	v, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}

func TestParsePreservesKeyOrder(t *testing.T) {
	v := mustParse(t, `{"zebra":1,"apple":2,"mango":3}`)
	members := v.Members()
	want := []string{"zebra", "apple", "mango"}
	if len(members) != len(want) {
		t.Fatalf("got %d members, want %d", len(members), len(want))
	}
	for i, m := range members {
		if m.Key != want[i] {
			t.Errorf("member %d = %q, want %q", i, m.Key, want[i])
		}
	}
}

func TestParseDuplicateKeysLastWins(t *testing.T) {
	v := mustParse(t, `{"a":1,"b":2,"a":3}`)
	if v.Len() != 2 {
		t.Fatalf("got %d members, want 2", v.Len())
	}
	got, _ := v.Get("a")
	if got.Num() != 3 {
		t.Errorf("a = %v, want 3", got.Num())
	}
	// First position is kept.
	if v.Members()[0].Key != "a" {
		t.Errorf("first key = %q, want a", v.Members()[0].Key)
	}
}

func TestParseScalars(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{`null`, KindNull},
		{`true`, KindBool},
		{`42.5`, KindNumber},
		{`"hi"`, KindString},
		{`[1,2]`, KindArray},
		{`{}`, KindObject},
	}
	for _, c := range cases {
		if got := mustParse(t, c.in).Kind(); got != c.kind {
			t.Errorf("Parse(%q).Kind() = %s, want %s", c.in, got, c.kind)
		}
	}
}

func TestParseInvalidJSON(t *testing.T) {
	for _, in := range []string{`{not json}`, `{"a":}`, `[1,2`, ``, `{"a":1} trailing`} {
		_, err := Parse([]byte(in))
		if !errors.Is(err, ErrInvalidJSON) {
			t.Errorf("Parse(%q): expected ErrInvalidJSON, got %v", in, err)
		}
	}
}

func TestCanonicalSortsKeys(t *testing.T) {
	v := mustParse(t, `{"b":1,"a":{"d":2,"c":3}}`)
	got := string(canonicalJSON(v))
	want := `{"a":{"c":3,"d":2},"b":1}`
	if got != want {
		t.Errorf("canonical = %s, want %s", got, want)
	}
}

func TestCanonicalKeyOrderIsUTF16(t *testing.T) {
	// U+1D11E encodes as the surrogate pair D834 DD1E, so in UTF-16 code
	// unit order it sorts before U+FB00 even though its code point (and
	// UTF-8 byte sequence) is larger.
	v := mustParse(t, "{\"ﬀ\":1,\"\U0001D11E\":2}")
	got := string(canonicalJSON(v))
	want := "{\"\U0001D11E\":2,\"ﬀ\":1}"
	if got != want {
		t.Errorf("canonical = %s, want %s", got, want)
	}
}

func TestCanonicalNumbers(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.0, "0"},
		{1, "1"},
		{-42, "-42"},
		{1.5, "1.5"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{0.00001, "0.00001"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{2.5e-8, "2.5e-8"},
		{5e-324, "5e-324"},
		{9.007199254740992e15, "9007199254740992"},
	}
	for _, c := range cases {
		got := string(appendCanonicalNumber(nil, c.in))
		if got != c.want {
			t.Errorf("appendCanonicalNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalStringEscaping(t *testing.T) {
	got := string(appendQuoted(nil, "a\"b\\c\n\x01é"))
	want := `"a\"b\\c\né"`
	if got != want {
		t.Errorf("appendQuoted = %s, want %s", got, want)
	}
}
