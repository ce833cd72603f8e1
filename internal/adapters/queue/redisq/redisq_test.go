package redisq

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"eventsink/internal/platform/store"
	"eventsink/internal/services/ingest/domain"
)

func pulledRecord(queue string, data []byte) domain.Record {
	return domain.Record{Queue: queue, Data: data}
}

type op struct {
	name string
	key  string
	data []byte
}

type fakeRedis struct {
	ops     []op
	pulls   [][]byte // successive BRPopLPush results; nil entry means timeout
	pullErr error
}

func (f *fakeRedis) BRPopLPush(_ context.Context, source, dest string, _ time.Duration) ([]byte, error) {
	f.ops = append(f.ops, op{name: "brpoplpush", key: source + "->" + dest})
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if len(f.pulls) == 0 {
		return nil, store.ErrEmpty
	}
	next := f.pulls[0]
	f.pulls = f.pulls[1:]
	if next == nil {
		return nil, store.ErrEmpty
	}
	return next, nil
}

func (f *fakeRedis) LPush(_ context.Context, key string, value []byte) error {
	f.ops = append(f.ops, op{name: "lpush", key: key, data: value})
	return nil
}

func (f *fakeRedis) LRem(_ context.Context, key string, _ int64, value []byte) error {
	f.ops = append(f.ops, op{name: "lrem", key: key, data: value})
	return nil
}

func (f *fakeRedis) Ping(context.Context) error { return nil }
func (f *fakeRedis) Close() error               { return nil }

func TestPull_MovesToProcessingList(t *testing.T) {
	f := &fakeRedis{pulls: [][]byte{[]byte("rec")}}
	q := New(f, Options{Queue: "uploads"})

	rec, err := q.Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if rec.Queue != "uploads" || !bytes.Equal(rec.Data, []byte("rec")) {
		t.Fatalf("rec = %+v", rec)
	}
	if f.ops[0].key != "uploads->uploads-processing" {
		t.Fatalf("wrong lists: %v", f.ops[0])
	}
}

func TestPull_AbsorbsTimeouts(t *testing.T) {
	f := &fakeRedis{pulls: [][]byte{nil, nil, []byte("late")}}
	q := New(f, Options{Queue: "uploads", PullTimeout: time.Millisecond})

	rec, err := q.Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !bytes.Equal(rec.Data, []byte("late")) {
		t.Fatalf("rec = %+v", rec)
	}
	if len(f.ops) != 3 {
		t.Fatalf("pull attempts = %d, want 3", len(f.ops))
	}
}

func TestPull_StopsOnCancel(t *testing.T) {
	f := &fakeRedis{} // always empty
	q := New(f, Options{Queue: "uploads", PullTimeout: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Pull(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPull_SurfacesBrokerErrors(t *testing.T) {
	f := &fakeRedis{pullErr: errors.New("conn refused")}
	q := New(f, Options{Queue: "uploads"})

	if _, err := q.Pull(context.Background()); err == nil {
		t.Fatalf("broker error swallowed")
	}
}

func TestAck_RemovesFromProcessing(t *testing.T) {
	f := &fakeRedis{}
	q := New(f, Options{Queue: "uploads"})

	rec := pulledRecord("uploads", []byte("rec"))
	if err := q.Ack(context.Background(), rec); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(f.ops) != 1 || f.ops[0].name != "lrem" || f.ops[0].key != "uploads-processing" {
		t.Fatalf("ops = %v", f.ops)
	}
}

func TestReject_DeadLettersBeforeRemoving(t *testing.T) {
	f := &fakeRedis{}
	q := New(f, Options{Queue: "uploads"})

	rec := pulledRecord("uploads", []byte("bad"))
	if err := q.Reject(context.Background(), rec); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(f.ops) != 2 {
		t.Fatalf("ops = %v", f.ops)
	}
	if f.ops[0].name != "lpush" || f.ops[0].key != "errors-uploads" {
		t.Fatalf("first op must dead-letter: %v", f.ops[0])
	}
	if f.ops[1].name != "lrem" || f.ops[1].key != "uploads-processing" {
		t.Fatalf("second op must clear processing: %v", f.ops[1])
	}
	if !bytes.Equal(f.ops[0].data, []byte("bad")) {
		t.Fatalf("dead letter data changed: %x", f.ops[0].data)
	}
}
