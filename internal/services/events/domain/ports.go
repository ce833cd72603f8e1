package domain

import "context"

// DecoderPort turns one raw queue record into a decoded batch.
// A failure here condemns the whole record; per-event problems are not
// decode failures and surface later as invalid outcomes.
type DecoderPort interface {
	Decode(raw []byte) (Batch, error)
}

// ClassifierPort resolves wire records against the schema registry.
// Classification is total: every call returns a ClassifiedEvent, never
// an error, whatever the payload looks like.
type ClassifierPort interface {
	Singular(ctx context.Context, req *Request, rec SingularRecord) ClassifiedEvent
	Aggregate(ctx context.Context, req *Request, rec AggregateRecord) ClassifiedEvent
	Sequence(ctx context.Context, req *Request, rec SequenceRecord) ClassifiedEvent

	// ClassifyAll runs the whole batch through the three methods above,
	// preserving wire order within each category
	ClassifyAll(ctx context.Context, b *Batch) []ClassifiedEvent
}

// WriterPort persists one classified batch atomically.
// stored is false when the request hash was already on record; the
// events are then dropped without error.
type WriterPort interface {
	CommitBatch(ctx context.Context, b *Batch, evs []ClassifiedEvent) (stored bool, err error)
}

// Ports is the events module surface other modules consume
type Ports struct {
	Decoder    DecoderPort
	Classifier ClassifierPort
	Writer     WriterPort
}
