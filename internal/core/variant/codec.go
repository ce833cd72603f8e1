package variant

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Wire form: one CBOR map per node, integer keys, deterministic encoding.
// Determinism matters because unknown and invalid events retain the payload
// encoding verbatim; re-encoding the same tree must yield the same bytes.

type wireNode struct {
	K uint8      `cbor:"1,keyasint"`
	B *bool      `cbor:"2,keyasint,omitempty"`
	I *int64     `cbor:"3,keyasint,omitempty"`
	U *uint64    `cbor:"4,keyasint,omitempty"`
	F *float64   `cbor:"5,keyasint,omitempty"`
	S *string    `cbor:"6,keyasint,omitempty"`
	Y []byte     `cbor:"7,keyasint,omitempty"`
	C []wireNode `cbor:"8,keyasint,omitempty"`
	V *wireNode  `cbor:"9,keyasint,omitempty"`
	T string     `cbor:"10,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em

	dopts := cbor.DecOptions{MaxNestedLevels: 64}
	dm, err := dopts.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Encode serializes a value tree to its canonical byte form
func Encode(v Value) ([]byte, error) {
	n, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(n)
}

// Decode parses a canonical byte form back into a value tree.
// Any failure here means the blob is not a well-formed value at all.
func Decode(raw []byte) (Value, error) {
	var n wireNode
	if err := decMode.Unmarshal(raw, &n); err != nil {
		return Value{}, fmt.Errorf("variant: decode: %w", err)
	}
	return fromWire(n)
}

// Data returns the canonical encoding of the node. Valid in-memory trees
// always encode; a malformed hand-built node yields nil.
func (v Value) Data() []byte {
	b, err := Encode(v)
	if err != nil {
		return nil
	}
	return b
}

func toWire(v Value) (wireNode, error) {
	n := wireNode{K: uint8(v.kind)}
	switch v.kind {
	case KindBool:
		n.B = &v.b
	case KindInt32, KindInt64:
		n.I = &v.i
	case KindUint32, KindUint64:
		n.U = &v.u
	case KindDouble:
		n.F = &v.f
	case KindString:
		n.S = &v.s
	case KindBytes:
		n.Y = v.raw
		if n.Y == nil {
			n.Y = []byte{}
		}
	case KindTuple, KindArray:
		n.C = make([]wireNode, len(v.kids))
		for i, k := range v.kids {
			if v.kind == KindArray {
				want := v.elem
				if want == "" && i > 0 {
					want = v.kids[0].TypeString()
				}
				if want != "" && k.TypeString() != want {
					return wireNode{}, fmt.Errorf("variant: array element %d is %s, want %s", i, k.TypeString(), want)
				}
			}
			kn, err := toWire(k)
			if err != nil {
				return wireNode{}, err
			}
			n.C[i] = kn
		}
		if v.kind == KindArray && len(v.kids) == 0 {
			n.T = v.elem
		}
	case KindMaybe:
		if v.inner != nil {
			in, err := toWire(*v.inner)
			if err != nil {
				return wireNode{}, err
			}
			n.V = &in
		} else {
			n.T = v.elem
		}
	case KindBoxed:
		if v.inner == nil {
			return wireNode{}, fmt.Errorf("variant: boxed node without payload")
		}
		in, err := toWire(*v.inner)
		if err != nil {
			return wireNode{}, err
		}
		n.V = &in
	default:
		return wireNode{}, fmt.Errorf("variant: unknown kind %d", v.kind)
	}
	return n, nil
}

func fromWire(n wireNode) (Value, error) {
	k := Kind(n.K)
	switch k {
	case KindBool:
		if n.B == nil {
			return Value{}, fmt.Errorf("variant: bool node without value")
		}
		return Bool(*n.B), nil
	case KindInt32, KindInt64:
		if n.I == nil {
			return Value{}, fmt.Errorf("variant: int node without value")
		}
		return Value{kind: k, i: *n.I}, nil
	case KindUint32, KindUint64:
		if n.U == nil {
			return Value{}, fmt.Errorf("variant: uint node without value")
		}
		return Value{kind: k, u: *n.U}, nil
	case KindDouble:
		if n.F == nil {
			return Value{}, fmt.Errorf("variant: double node without value")
		}
		return F64(*n.F), nil
	case KindString:
		if n.S == nil {
			return Value{}, fmt.Errorf("variant: string node without value")
		}
		return Str(*n.S), nil
	case KindBytes:
		return Bytes(n.Y), nil
	case KindTuple, KindArray:
		kids := make([]Value, len(n.C))
		for i, cn := range n.C {
			kv, err := fromWire(cn)
			if err != nil {
				return Value{}, err
			}
			if k == KindArray {
				want := n.T
				if want == "" && i > 0 {
					want = kids[0].TypeString()
				}
				if want != "" && kv.TypeString() != want {
					return Value{}, fmt.Errorf("variant: array element %d is %s, want %s", i, kv.TypeString(), want)
				}
			}
			kids[i] = kv
		}
		return Value{kind: k, kids: kids, elem: n.T}, nil
	case KindMaybe:
		if n.V == nil {
			return Nothing(n.T), nil
		}
		in, err := fromWire(*n.V)
		if err != nil {
			return Value{}, err
		}
		return MaybeOf(in), nil
	case KindBoxed:
		if n.V == nil {
			return Value{}, fmt.Errorf("variant: boxed node without payload")
		}
		in, err := fromWire(*n.V)
		if err != nil {
			return Value{}, err
		}
		return Boxed(in), nil
	}
	return Value{}, fmt.Errorf("variant: unknown kind %d", n.K)
}
