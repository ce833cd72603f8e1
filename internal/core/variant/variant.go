// Package variant implements the self-describing typed value trees that
// telemetry payloads are encoded as. A Value is one node: a primitive, a
// container (tuple or array), an optional wrapper (maybe), or a boxed value.
// Every node reports a structural type signature ("u", "x", "ay", "(xx)",
// "a(xmv)", "mv", ...) that schemas are matched against byte for byte.
package variant

import (
	"fmt"
	"strings"
)

// Kind tags the node shape
type Kind uint8

// Node kinds. Containers hold child Values, Maybe holds zero or one,
// Boxed holds exactly one of any type.
const (
	KindBool Kind = iota
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindDouble
	KindString
	KindBytes
	KindTuple
	KindArray
	KindMaybe
	KindBoxed
)

// Value is one node of a decoded payload tree
// the zero Value is invalid; build nodes with the constructors below
type Value struct {
	kind Kind

	b   bool
	i   int64
	u   uint64
	f   float64
	s   string
	raw []byte

	kids  []Value
	inner *Value // maybe-just and boxed payloads

	// declared element type for empty arrays and empty maybes,
	// where the signature can't be derived from a child
	elem string
}

// Constructors

// Bool builds a "b" node
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// I32 builds an "i" node
func I32(v int32) Value { return Value{kind: KindInt32, i: int64(v)} }

// U32 builds a "u" node
func U32(v uint32) Value { return Value{kind: KindUint32, u: uint64(v)} }

// I64 builds an "x" node
func I64(v int64) Value { return Value{kind: KindInt64, i: v} }

// U64 builds a "t" node
func U64(v uint64) Value { return Value{kind: KindUint64, u: v} }

// F64 builds a "d" node
func F64(v float64) Value { return Value{kind: KindDouble, f: v} }

// Str builds an "s" node
func Str(v string) Value { return Value{kind: KindString, s: v} }

// Bytes builds an "ay" node
func Bytes(v []byte) Value {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Value{kind: KindBytes, raw: cp}
}

// Tuple builds a "(...)" node from its members in order
func Tuple(vs ...Value) Value {
	return Value{kind: KindTuple, kids: append([]Value(nil), vs...)}
}

// Array builds an "a<elem>" node; elem is the element signature and must
// match every member (kept for empty arrays, enforced on encode)
func Array(elem string, vs ...Value) Value {
	return Value{kind: KindArray, elem: elem, kids: append([]Value(nil), vs...)}
}

// MaybeOf builds an "m<type>" node holding v
func MaybeOf(v Value) Value { return Value{kind: KindMaybe, inner: &v} }

// Nothing builds an empty "m<typ>" node
func Nothing(typ string) Value { return Value{kind: KindMaybe, elem: typ} }

// Boxed builds a "v" node wrapping v
func Boxed(v Value) Value { return Value{kind: KindBoxed, inner: &v} }

// Kind returns the node kind
func (v Value) Kind() Kind { return v.kind }

// TypeString returns the structural signature of this node
func (v Value) TypeString() string {
	switch v.kind {
	case KindBool:
		return "b"
	case KindInt32:
		return "i"
	case KindUint32:
		return "u"
	case KindInt64:
		return "x"
	case KindUint64:
		return "t"
	case KindDouble:
		return "d"
	case KindString:
		return "s"
	case KindBytes:
		return "ay"
	case KindTuple:
		var sb strings.Builder
		sb.WriteByte('(')
		for _, k := range v.kids {
			sb.WriteString(k.TypeString())
		}
		sb.WriteByte(')')
		return sb.String()
	case KindArray:
		if len(v.kids) > 0 {
			return "a" + v.kids[0].TypeString()
		}
		return "a" + v.elem
	case KindMaybe:
		if v.inner != nil {
			return "m" + v.inner.TypeString()
		}
		return "m" + v.elem
	case KindBoxed:
		return "v"
	}
	return "?"
}

// Accessors. Each fails on a kind mismatch so that schema extractors can
// surface bad payload shapes instead of reading garbage.

// AsBool reads a "b" node
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.kindErr("b")
	}
	return v.b, nil
}

// AsInt32 reads an "i" node
func (v Value) AsInt32() (int32, error) {
	if v.kind != KindInt32 {
		return 0, v.kindErr("i")
	}
	return int32(v.i), nil
}

// AsUint32 reads a "u" node
func (v Value) AsUint32() (uint32, error) {
	if v.kind != KindUint32 {
		return 0, v.kindErr("u")
	}
	return uint32(v.u), nil
}

// AsInt64 reads an "x" node
func (v Value) AsInt64() (int64, error) {
	if v.kind != KindInt64 {
		return 0, v.kindErr("x")
	}
	return v.i, nil
}

// AsUint64 reads a "t" node
func (v Value) AsUint64() (uint64, error) {
	if v.kind != KindUint64 {
		return 0, v.kindErr("t")
	}
	return v.u, nil
}

// AsDouble reads a "d" node
func (v Value) AsDouble() (float64, error) {
	if v.kind != KindDouble {
		return 0, v.kindErr("d")
	}
	return v.f, nil
}

// AsString reads an "s" node
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.kindErr("s")
	}
	return v.s, nil
}

// AsBytes reads an "ay" node
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, v.kindErr("ay")
	}
	return v.raw, nil
}

// NChildren returns the member count of a tuple or array, zero otherwise
func (v Value) NChildren() int {
	if v.kind == KindTuple || v.kind == KindArray {
		return len(v.kids)
	}
	return 0
}

// Child returns the i-th member of a tuple or array
func (v Value) Child(i int) (Value, error) {
	if v.kind != KindTuple && v.kind != KindArray {
		return Value{}, fmt.Errorf("variant: %s has no children", v.TypeString())
	}
	if i < 0 || i >= len(v.kids) {
		return Value{}, fmt.Errorf("variant: child index %d out of range in %s", i, v.TypeString())
	}
	return v.kids[i], nil
}

// Maybe unwraps an optional node; ok is false for an empty maybe.
// A non-maybe node unwraps to itself.
func (v Value) Maybe() (Value, bool) {
	if v.kind != KindMaybe {
		return v, true
	}
	if v.inner == nil {
		return Value{}, false
	}
	return *v.inner, true
}

// Unbox strips nested "v" boxes; some producers wrap payloads
// in variants several times, others not at all
func (v Value) Unbox() Value {
	for v.kind == KindBoxed && v.inner != nil {
		v = *v.inner
	}
	return v
}

// Strings flattens an "as" node into a string slice
func (v Value) Strings() ([]string, error) {
	if v.kind != KindArray {
		return nil, v.kindErr("as")
	}
	out := make([]string, 0, len(v.kids))
	for _, k := range v.kids {
		s, err := k.Unbox().AsString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (v Value) kindErr(want string) error {
	return fmt.Errorf("variant: want %s, have %s", want, v.TypeString())
}

// String renders the node for diagnostics; the output goes into invalid
// event error text, so it stays compact
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindInt32, KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindUint32, KindUint64:
		return fmt.Sprintf("%d", v.u)
	case KindDouble:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("0x%x", v.raw)
	case KindTuple, KindArray:
		parts := make([]string, len(v.kids))
		for i, k := range v.kids {
			parts[i] = k.String()
		}
		lb, rb := "(", ")"
		if v.kind == KindArray {
			lb, rb = "[", "]"
		}
		return lb + strings.Join(parts, ", ") + rb
	case KindMaybe:
		if v.inner == nil {
			return "nothing"
		}
		return "just " + v.inner.String()
	case KindBoxed:
		if v.inner == nil {
			return "<v>"
		}
		return "<" + v.inner.String() + ">"
	}
	return "<invalid>"
}
