package service

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"time"

	"eventsink/internal/core/variant"
	perr "eventsink/internal/platform/errors"
	"eventsink/internal/services/events/domain"
)

// requestType is the full signature of one upload body:
// send number, relative and absolute timestamps, machine id, then the
// singular, aggregate and sequence arrays
const requestType = "(ixxaya(uayxmv)a(uayxxmv)a(uaya(xmv)))"

// prefixLen is the little-endian received-at microsecond stamp the
// receiver prepends to every queued body
const prefixLen = 8

// Decoder unpacks raw queue records into batches.
// It implements domain.DecoderPort.
type Decoder struct{}

// NewDecoder returns the envelope decoder
func NewDecoder() Decoder { return Decoder{} }

// Decode splits the received-at prefix from the body, checks the body
// signature, and unpacks request metadata plus every event record.
// The dedup hash covers the body only, not the prefix.
func (Decoder) Decode(raw []byte) (domain.Batch, error) {
	if len(raw) <= prefixLen {
		return domain.Batch{}, perr.InvalidArgf("record too short: %d bytes", len(raw))
	}
	receivedUS := int64(binary.LittleEndian.Uint64(raw[:prefixLen]))
	body := raw[prefixLen:]

	v, err := variant.Decode(body)
	if err != nil {
		return domain.Batch{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "envelope: malformed body")
	}
	if got := v.TypeString(); got != requestType {
		return domain.Batch{}, perr.InvalidArgf("envelope: request has type %s, want %s", got, requestType)
	}

	sum := sha512.Sum512(body)

	var b domain.Batch
	b.Request = domain.Request{
		SHA512:     hex.EncodeToString(sum[:]),
		ReceivedAt: time.UnixMicro(receivedUS).UTC(),
	}

	send, _ := v.Child(0)
	b.Request.SendNumber, _ = send.AsInt32()
	rel, _ := v.Child(1)
	b.Request.RelativeTS, _ = rel.AsInt64()
	abs, _ := v.Child(2)
	b.Request.AbsoluteTS, _ = abs.AsInt64()
	machine, _ := v.Child(3)
	mid, _ := machine.AsBytes()
	b.Request.MachineID = hex.EncodeToString(mid)

	if b.Singulars, err = decodeSingulars(v); err != nil {
		return domain.Batch{}, err
	}
	if b.Aggregates, err = decodeAggregates(v); err != nil {
		return domain.Batch{}, err
	}
	if b.Sequences, err = decodeSequences(v); err != nil {
		return domain.Batch{}, err
	}
	return b, nil
}

func decodeSingulars(v variant.Value) ([]domain.SingularRecord, error) {
	arr, _ := v.Child(4)
	n := arr.NChildren()
	out := make([]domain.SingularRecord, 0, n)
	for i := 0; i < n; i++ {
		tup, _ := arr.Child(i)
		rec := domain.SingularRecord{}
		var err error
		if rec.UserID, rec.TypeID, err = decodeIdentity(tup); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "envelope: singular %d", i)
		}
		ts, _ := tup.Child(2)
		rec.RelativeTS, _ = ts.AsInt64()
		rec.Payload, _ = tup.Child(3)
		out = append(out, rec)
	}
	return out, nil
}

func decodeAggregates(v variant.Value) ([]domain.AggregateRecord, error) {
	arr, _ := v.Child(5)
	n := arr.NChildren()
	out := make([]domain.AggregateRecord, 0, n)
	for i := 0; i < n; i++ {
		tup, _ := arr.Child(i)
		rec := domain.AggregateRecord{}
		var err error
		if rec.UserID, rec.TypeID, err = decodeIdentity(tup); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "envelope: aggregate %d", i)
		}
		count, _ := tup.Child(2)
		rec.Count, _ = count.AsInt64()
		ts, _ := tup.Child(3)
		rec.RelativeTS, _ = ts.AsInt64()
		rec.Payload, _ = tup.Child(4)
		out = append(out, rec)
	}
	return out, nil
}

func decodeSequences(v variant.Value) ([]domain.SequenceRecord, error) {
	arr, _ := v.Child(6)
	n := arr.NChildren()
	out := make([]domain.SequenceRecord, 0, n)
	for i := 0; i < n; i++ {
		tup, _ := arr.Child(i)
		rec := domain.SequenceRecord{}
		var err error
		if rec.UserID, rec.TypeID, err = decodeIdentity(tup); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "envelope: sequence %d", i)
		}
		rec.Events, _ = tup.Child(2)
		out = append(out, rec)
	}
	return out, nil
}

// decodeIdentity reads the leading (user id, type id) pair every event
// record starts with. A type identifier that is not exactly 16 bytes
// fails the whole batch; the signature check cannot catch array lengths.
func decodeIdentity(tup variant.Value) (uint32, domain.EventTypeID, error) {
	user, _ := tup.Child(0)
	uid, _ := user.AsUint32()
	idNode, _ := tup.Child(1)
	idBytes, _ := idNode.AsBytes()
	id, err := domain.TypeIDFromBytes(idBytes)
	if err != nil {
		return 0, domain.EventTypeID{}, perr.InvalidArgf("event type id is %d bytes, want 16", len(idBytes))
	}
	return uid, id, nil
}
