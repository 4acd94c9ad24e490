package jsonval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ErrInvalidJSON is wrapped by Parse, ValidateText, and Deserialize when the
// input is not well-formed JSON.
var ErrInvalidJSON = errors.New("jsonval: invalid JSON")

// Parse decodes data into a Value tree, preserving object key insertion
// order (encoding/json's map decoding would lose it). Duplicate keys keep
// their first position and the last value wins. The returned error wraps
// ErrInvalidJSON for malformed input.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseNext(dec)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data after top-level value", ErrInvalidJSON)
	}
	return v, nil
}

func parseNext(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := parseNext(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return obj, nil
		case '[':
			arr := Array()
			for dec.More() {
				item, err := parseNext(dec)
				if err != nil {
					return Value{}, err
				}
				arr.Append(item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return arr, nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q out of range", t)
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// canonicalJSON returns the RFC 8785 serialized form of v: object keys
// sorted by UTF-16 code units at every level, no incidental whitespace,
// ECMAScript number formatting, and minimal string escaping. Two
// structurally equal trees serialize identically regardless of original key
// insertion order. Non-finite numbers (which JSON cannot represent)
// canonicalize to null so the function is total.
func canonicalJSON(v Value) []byte {
	return appendCanonical(make([]byte, 0, 256), v)
}

func appendCanonical(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...)
	case KindBool:
		if v.b {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case KindNumber:
		return appendCanonicalNumber(dst, v.num)
	case KindString:
		return appendQuoted(dst, v.str)
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.arr.items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendCanonical(dst, item)
		}
		return append(dst, ']')
	case KindObject:
		keys := make([]string, len(v.obj.members))
		for i, m := range v.obj.members {
			keys[i] = m.Key
		}
		sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })
		dst = append(dst, '{')
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, k)
			dst = append(dst, ':')
			val, _ := v.Get(k)
			dst = appendCanonical(dst, val)
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

// appendCanonicalNumber formats f per ECMAScript Number::toString, which
// RFC 8785 mandates: plain decimal notation while the decimal exponent
// stays in [-6, 20], exponential notation ("d.ddde±x", no leading zeros in
// the exponent) outside that range. Negative zero prints as 0.
func appendCanonicalNumber(dst []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(dst, "null"...)
	}
	if f == 0 {
		return append(dst, '0')
	}
	// Shortest round-trip digits via "d.ddde±xx", then re-rendered per the
	// ECMAScript rules below.
	mant := strconv.FormatFloat(f, 'e', -1, 64)
	ePos := strings.IndexByte(mant, 'e')
	exp, _ := strconv.Atoi(mant[ePos+1:])
	digits := mant[:ePos]
	if digits[0] == '-' {
		dst = append(dst, '-')
		digits = digits[1:]
	}
	digits = strings.Replace(digits, ".", "", 1)
	// n is the position of the decimal point relative to the digit string:
	// the value is 0.<digits> * 10^n.
	n := exp + 1
	k := len(digits)
	switch {
	case k <= n && n <= 21:
		dst = append(dst, digits...)
		for i := 0; i < n-k; i++ {
			dst = append(dst, '0')
		}
	case 0 < n && n <= 21:
		dst = append(dst, digits[:n]...)
		dst = append(dst, '.')
		dst = append(dst, digits[n:]...)
	case -6 < n && n <= 0:
		dst = append(dst, '0', '.')
		for i := 0; i < -n; i++ {
			dst = append(dst, '0')
		}
		dst = append(dst, digits...)
	default:
		dst = append(dst, digits[0])
		if k > 1 {
			dst = append(dst, '.')
			dst = append(dst, digits[1:]...)
		}
		dst = append(dst, 'e')
		if n-1 >= 0 {
			dst = append(dst, '+')
		}
		dst = strconv.AppendInt(dst, int64(n-1), 10)
	}
	return dst
}

// lessUTF16 orders strings by their UTF-16 code unit sequences, the key
// ordering RFC 8785 requires. It differs from byte order only when a
// supplementary-plane character (whose UTF-16 form starts with a surrogate
// below 0xE000) meets a character in [U+E000, U+FFFF].
func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a JSON string with minimal escaping: only the
// quote, backslash, and control characters are escaped, using the short
// forms where JSON defines them.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
