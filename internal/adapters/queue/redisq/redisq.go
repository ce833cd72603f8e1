// Package redisq adapts a Redis list to the ingest queue port.
//
// Receivers LPUSH records onto the queue list; workers move them with
// BRPOPLPUSH onto a processing list so a crash never loses a record.
// Ack removes the record from the processing list; Reject moves it to
// the errors-<queue> list for operator replay.
package redisq

import (
	"context"
	"errors"
	"time"

	"eventsink/internal/platform/store"
	"eventsink/internal/services/ingest/domain"
)

// Options configures one adapter instance
type Options struct {
	Queue       string
	PullTimeout time.Duration
}

// Queue implements domain.QueuePort on a store.Redis connection
type Queue struct {
	rd         store.Redis
	queue      string
	processing string
	deadLetter string
	timeout    time.Duration
}

// New builds the adapter. The processing and dead-letter list names are
// derived from the queue name.
func New(rd store.Redis, opt Options) *Queue {
	timeout := opt.PullTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Queue{
		rd:         rd,
		queue:      opt.Queue,
		processing: opt.Queue + "-processing",
		deadLetter: "errors-" + opt.Queue,
		timeout:    timeout,
	}
}

// Pull blocks until a record is available or ctx is done. Timeouts on
// the blocking pop are absorbed so callers only ever see a record, a
// cancellation, or a broker failure.
func (q *Queue) Pull(ctx context.Context) (domain.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Record{}, err
		}
		data, err := q.rd.BRPopLPush(ctx, q.queue, q.processing, q.timeout)
		if errors.Is(err, store.ErrEmpty) {
			continue
		}
		if err != nil {
			return domain.Record{}, err
		}
		return domain.Record{Queue: q.queue, Data: data}, nil
	}
}

// Ack drops the record from the processing list
func (q *Queue) Ack(ctx context.Context, rec domain.Record) error {
	return q.rd.LRem(ctx, q.processing, 1, rec.Data)
}

// Reject pushes the record onto the dead-letter list, then drops it from
// the processing list. Order matters: the record must never be absent
// from both lists at once.
func (q *Queue) Reject(ctx context.Context, rec domain.Record) error {
	if err := q.rd.LPush(ctx, q.deadLetter, rec.Data); err != nil {
		return err
	}
	return q.rd.LRem(ctx, q.processing, 1, rec.Data)
}
