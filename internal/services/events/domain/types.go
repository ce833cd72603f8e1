// Package domain defines the types and interfaces for the events service
package domain

import (
	"time"

	"github.com/google/uuid"

	"eventsink/internal/core/variant"
)

// Category is the structural shape of an event
type Category uint8

// The three event shapes a device can report
const (
	CategorySingular Category = iota
	CategoryAggregate
	CategorySequence
)

// String renders the category for logs and errors
func (c Category) String() string {
	switch c {
	case CategorySingular:
		return "singular"
	case CategoryAggregate:
		return "aggregate"
	case CategorySequence:
		return "sequence"
	}
	return "unknown"
}

// Outcome is the classification result for one event
type Outcome uint8

// Every classified event lands in exactly one of these
const (
	OutcomeKnown Outcome = iota
	OutcomeUnknown
	OutcomeInvalid
)

// String renders the outcome for logs and errors
func (o Outcome) String() string {
	switch o {
	case OutcomeKnown:
		return "known"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeInvalid:
		return "invalid"
	}
	return "?"
}

// EventTypeID is the 128-bit identifier naming an event schema,
// parsed from 16 raw wire bytes
type EventTypeID = uuid.UUID

// TypeIDFromBytes parses a wire identifier; anything but 16 bytes fails
func TypeIDFromBytes(b []byte) (EventTypeID, error) {
	return uuid.FromBytes(b)
}

// Request is one upload unit: its identity, dedup hash, and the clock
// calibration pair every contained event is reconciled against.
// AbsoluteTS and RelativeTS are nanoseconds.
type Request struct {
	ID         int64
	SHA512     string
	ReceivedAt time.Time
	AbsoluteTS int64
	RelativeTS int64
	MachineID  string
	SendNumber int32
}

// SingularRecord is one singular event as delivered on the wire
type SingularRecord struct {
	UserID     uint32
	TypeID     EventTypeID
	RelativeTS int64
	Payload    variant.Value // optional payload, still maybe-wrapped
}

// AggregateRecord is one aggregate event as delivered on the wire
type AggregateRecord struct {
	UserID     uint32
	TypeID     EventTypeID
	Count      int64
	RelativeTS int64
	Payload    variant.Value
}

// SequenceRecord is one whole multi-part session: start, any number of
// progress events, stop. Events is the ordered child list (each child is
// a relative timestamp plus an optional payload).
type SequenceRecord struct {
	UserID uint32
	TypeID EventTypeID
	Events variant.Value
}

// Batch is one decoded upload: the request metadata plus every event it contains
type Batch struct {
	Request    Request
	Singulars  []SingularRecord
	Aggregates []AggregateRecord
	Sequences  []SequenceRecord
}

// FieldSet holds the typed fields a schema extracted from a payload
type FieldSet map[string]any

// ClassifiedEvent is the dispatch result. Category and Outcome are
// orthogonal axes; which of the remaining fields are meaningful follows
// from them. Unknown and invalid outcomes never carry typed fields, only
// the original payload encoding.
type ClassifiedEvent struct {
	Category Category
	Outcome  Outcome

	TypeID EventTypeID
	UserID int64 // wire value is uint32; widened so storage needs no unsigned type

	OccurredAt time.Time // singular, aggregate
	Count      int64     // aggregate
	StartedAt  time.Time // sequence, known outcome only
	StoppedAt  time.Time // sequence, known outcome only

	Fields  FieldSet // known outcome only
	Payload []byte   // unknown and invalid: payload encoding, verbatim
	Error   string   // invalid only
}
