package service

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"eventsink/internal/core/variant"
)

func buildRequest(t *testing.T, singulars, aggregates, sequences []variant.Value) []byte {
	t.Helper()
	machine := make([]byte, 16)
	for i := range machine {
		machine[i] = 0xff
	}
	req := variant.Tuple(
		variant.I32(3),
		variant.I64(2_000_000_000),
		variant.I64(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixNano()),
		variant.Bytes(machine),
		variant.Array("(uayxmv)", singulars...),
		variant.Array("(uayxxmv)", aggregates...),
		variant.Array("(uaya(xmv))", sequences...),
	)
	body, err := variant.Encode(req)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	return body
}

func prefixed(body []byte, receivedUS int64) []byte {
	raw := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint64(raw[:8], uint64(receivedUS))
	copy(raw[8:], body)
	return raw
}

func singularTuple(user uint32, id uuid.UUID, rel int64, payload variant.Value) variant.Value {
	return variant.Tuple(variant.U32(user), variant.Bytes(id[:]), variant.I64(rel), payload)
}

func TestEnvelope_DecodeFullRequest(t *testing.T) {
	typeID := uuid.MustParse("9af2cc74-d6dd-423f-ac44-600a6eee2d96")
	seqID := uuid.MustParse("b5e11a3d-13f8-4219-84fd-c9ba0bf3d1f0")

	body := buildRequest(t,
		[]variant.Value{
			singularTuple(1001, typeID, 5_000_000_000,
				variant.MaybeOf(variant.Boxed(variant.Tuple(variant.I64(3600), variant.I64(2))))),
		},
		[]variant.Value{
			variant.Tuple(variant.U32(1001), variant.Bytes(typeID[:]),
				variant.I64(30), variant.I64(7_000_000_000), variant.Nothing("v")),
		},
		[]variant.Value{
			variant.Tuple(variant.U32(2000), variant.Bytes(seqID[:]),
				variant.Array("(xmv)",
					variant.Tuple(variant.I64(1), variant.MaybeOf(variant.Boxed(variant.Str("app")))),
					variant.Tuple(variant.I64(2), variant.Nothing("v")),
				)),
		},
	)
	receivedUS := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC).UnixMicro()

	b, err := NewDecoder().Decode(prefixed(body, receivedUS))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if b.Request.SendNumber != 3 {
		t.Fatalf("send number = %d", b.Request.SendNumber)
	}
	if b.Request.RelativeTS != 2_000_000_000 {
		t.Fatalf("relative ts = %d", b.Request.RelativeTS)
	}
	if b.Request.MachineID != strings.Repeat("ff", 16) {
		t.Fatalf("machine id = %q", b.Request.MachineID)
	}
	if !b.Request.ReceivedAt.Equal(time.UnixMicro(receivedUS).UTC()) {
		t.Fatalf("received at = %v", b.Request.ReceivedAt)
	}
	sum := sha512.Sum512(body)
	if b.Request.SHA512 != hex.EncodeToString(sum[:]) {
		t.Fatalf("dedup hash covers the wrong bytes")
	}

	if len(b.Singulars) != 1 || len(b.Aggregates) != 1 || len(b.Sequences) != 1 {
		t.Fatalf("record counts %d/%d/%d", len(b.Singulars), len(b.Aggregates), len(b.Sequences))
	}
	s := b.Singulars[0]
	if s.UserID != 1001 || s.TypeID != typeID || s.RelativeTS != 5_000_000_000 {
		t.Fatalf("singular = %+v", s)
	}
	a := b.Aggregates[0]
	if a.Count != 30 || a.RelativeTS != 7_000_000_000 {
		t.Fatalf("aggregate = %+v", a)
	}
	q := b.Sequences[0]
	if q.UserID != 2000 || q.TypeID != seqID || q.Events.NChildren() != 2 {
		t.Fatalf("sequence = %+v", q)
	}
}

func TestEnvelope_EmptyRequest(t *testing.T) {
	body := buildRequest(t, nil, nil, nil)

	b, err := NewDecoder().Decode(prefixed(body, 1))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.Singulars)+len(b.Aggregates)+len(b.Sequences) != 0 {
		t.Fatalf("phantom records: %+v", b)
	}
}

func TestEnvelope_RejectsShortRecord(t *testing.T) {
	if _, err := NewDecoder().Decode([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for truncated record")
	}
	if _, err := NewDecoder().Decode(make([]byte, 8)); err == nil {
		t.Fatalf("expected error for prefix-only record")
	}
}

func TestEnvelope_RejectsWrongShape(t *testing.T) {
	body, err := variant.Encode(variant.Tuple(variant.I32(1), variant.Str("nope")))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = NewDecoder().Decode(prefixed(body, 1))
	if err == nil || !strings.Contains(err.Error(), "(ixxaya(uayxmv)a(uayxxmv)a(uaya(xmv)))") {
		t.Fatalf("err = %v, want signature mismatch naming the expected shape", err)
	}
}

func TestEnvelope_RejectsBadTypeIDLength(t *testing.T) {
	body := buildRequest(t, []variant.Value{
		variant.Tuple(variant.U32(1), variant.Bytes([]byte{1, 2, 3}), variant.I64(0), variant.Nothing("v")),
	}, nil, nil)

	_, err := NewDecoder().Decode(prefixed(body, 1))
	if err == nil || !strings.Contains(err.Error(), "16") {
		t.Fatalf("err = %v, want 16-byte id complaint", err)
	}
}

func TestEnvelope_RejectsUndecodableBody(t *testing.T) {
	raw := prefixed([]byte{0xde, 0xad, 0xbe, 0xef}, 1)
	if _, err := NewDecoder().Decode(raw); err == nil {
		t.Fatalf("expected error for garbage body")
	}
}
