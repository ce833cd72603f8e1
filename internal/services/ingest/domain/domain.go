// Package domain defines the queue-facing types for the ingest service
package domain

import (
	"context"

	eventsdom "eventsink/internal/services/events/domain"
)

// Record is one raw upload pulled off the queue, kept byte-for-byte so
// it can be returned to a dead-letter list untouched
type Record struct {
	Queue string
	Data  []byte
}

// QueuePort is the broker seam the worker pool drains.
// Pull blocks until a record arrives or ctx is done. Ack removes a fully
// committed record; Reject moves a failed record to the dead-letter list
// for operator replay.
type QueuePort interface {
	Pull(ctx context.Context) (Record, error)
	Ack(ctx context.Context, rec Record) error
	Reject(ctx context.Context, rec Record) error
}

// RunnerPort is the ingest module surface
type RunnerPort interface {
	Run(ctx context.Context) error
}

// Ports collects everything one worker needs
type Ports struct {
	Queue      QueuePort
	Decoder    eventsdom.DecoderPort
	Classifier eventsdom.ClassifierPort
	Writer     eventsdom.WriterPort
}
