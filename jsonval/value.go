// Package jsonval implements secure validation, sanitization, and integrity
// hashing for arbitrary JSON value trees. It walks parsed data depth-first
// looking for resource-exhaustion shapes (deep nesting, oversized payloads,
// huge collections), structural injection (prototype-pollution style keys),
// and content injection (script/SQL/path-traversal patterns in string
// leaves), then can produce a sanitized copy and a canonical SHA-256 digest.
//
// Outside strict mode the package accepts with warnings: Serialize and
// Deserialize succeed even when the document violates limits or patterns,
// and the violations are only reachable through Validate or ValidateText.
// Callers that act on warnings must call Validate themselves before (or
// instead of) the convenience functions.
//
// jsonval has NO cross-module dependencies — errors are module-local
// sentinel types and the package builds on the standard library only,
// so it can be imported without pulling in any of the toolkit's
// telemetry or transport stack. Enforce transport-level body size
// limits BEFORE handing data to jsonval; ValidateText checks the total byte
// size before parsing, but a caller that parses on its own must bound input
// itself.
package jsonval

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindNull is the JSON null value.
	KindNull Kind = iota
	// KindBool is a JSON true/false.
	KindBool
	// KindNumber is a JSON number, held as float64.
	KindNumber
	// KindString is a JSON string.
	KindString
	// KindArray is an ordered sequence of values.
	KindArray
	// KindObject is an ordered mapping of unique string keys to values.
	KindObject
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a JSON value tree node. The zero Value is null. Arrays and
// objects are held behind pointers so that copies of a Value share the same
// container: this keeps copies cheap and gives programmatically built graphs
// the identity the circular-reference check relies on.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  *arrayNode
	obj  *objectNode
}

// Member is one key/value entry of an object. Insertion order is preserved.
type Member struct {
	Key   string
	Value Value
}

type arrayNode struct {
	items []Value
}

type objectNode struct {
	members []Member
	index   map[string]int // key → position in members
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an array value holding the given items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: &arrayNode{items: items}}
}

// Object returns an object value holding the given members in order.
// Duplicate keys keep their first position; the last value wins.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, obj: &objectNode{index: make(map[string]int, len(members))}}
	for _, m := range members {
		v.Set(m.Key, m.Value)
	}
	return v
}

// Kind reports which variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload. It is only meaningful for KindBool.
func (v Value) Bool() bool { return v.b }

// Num returns the numeric payload. It is only meaningful for KindNumber.
func (v Value) Num() float64 { return v.num }

// Str returns the string payload. It is only meaningful for KindString.
func (v Value) Str() string { return v.str }

// Items returns the array elements, or nil for non-arrays. The returned
// slice is the live backing store; callers must not mutate it while a
// validation or sanitization pass is running.
func (v Value) Items() []Value {
	if v.arr == nil {
		return nil
	}
	return v.arr.items
}

// Members returns the object members in insertion order, or nil for
// non-objects.
func (v Value) Members() []Member {
	if v.obj == nil {
		return nil
	}
	return v.obj.members
}

// Len returns the number of elements for arrays, the number of members for
// objects, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr.items)
	case KindObject:
		return len(v.obj.members)
	default:
		return 0
	}
}

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	i, ok := v.obj.index[key]
	if !ok {
		return Value{}, false
	}
	return v.obj.members[i].Value, true
}

// Set inserts or replaces an object member, preserving insertion order for
// existing keys. It panics on non-object values, mirroring how indexing a
// Go map through a nil pointer would fail anyway.
func (v Value) Set(key string, val Value) {
	if v.kind != KindObject {
		panic("jsonval: Set on non-object value")
	}
	if i, ok := v.obj.index[key]; ok {
		v.obj.members[i].Value = val
		return
	}
	v.obj.index[key] = len(v.obj.members)
	v.obj.members = append(v.obj.members, Member{Key: key, Value: val})
}

// Append adds an element to an array value. Panics on non-arrays.
func (v Value) Append(items ...Value) {
	if v.kind != KindArray {
		panic("jsonval: Append on non-array value")
	}
	v.arr.items = append(v.arr.items, items...)
}

// Equal reports deep structural equality. Object member order is
// significant: two objects with the same members in different order are not
// Equal (use Hash for order-insensitive comparison).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr.items) != len(b.arr.items) {
			return false
		}
		for i := range a.arr.items {
			if !Equal(a.arr.items[i], b.arr.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj.members) != len(b.obj.members) {
			return false
		}
		for i := range a.obj.members {
			if a.obj.members[i].Key != b.obj.members[i].Key {
				return false
			}
			if !Equal(a.obj.members[i].Value, b.obj.members[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
