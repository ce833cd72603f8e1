package service

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"eventsink/internal/core/variant"
	"eventsink/internal/services/events/domain"
)

func seqChild(rel int64, payload variant.Value) variant.Value {
	return variant.Tuple(variant.I64(rel), payload)
}

func TestSequence_Known(t *testing.T) {
	s := testSvc(t)
	req := testRequest()

	events := variant.Array("(xmv)",
		seqChild(3_000_000_000, variant.MaybeOf(variant.Boxed(variant.Str("org.gnome.Podcasts")))),
		seqChild(120_000_000_000, variant.Nothing("v")),
	)
	ev := s.Sequence(context.Background(), req, domain.SequenceRecord{
		UserID: 2000,
		TypeID: appOpenID,
		Events: events,
	})

	if ev.Category != domain.CategorySequence || ev.Outcome != domain.OutcomeKnown {
		t.Fatalf("classified as %s/%s: %q", ev.Category, ev.Outcome, ev.Error)
	}
	wantStart := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)
	wantStop := time.Date(2026, 3, 1, 12, 1, 58, 0, time.UTC)
	if !ev.StartedAt.Equal(wantStart) || !ev.StoppedAt.Equal(wantStop) {
		t.Fatalf("span %v..%v, want %v..%v", ev.StartedAt, ev.StoppedAt, wantStart, wantStop)
	}
	if ev.Fields["app_id"] != "org.gnome.Podcasts" {
		t.Fatalf("fields = %v", ev.Fields)
	}
}

func TestSequence_ProgressDiscarded(t *testing.T) {
	s := testSvc(t)

	// progress payloads are junk on purpose; they must never be decoded
	events := variant.Array("(xmv)",
		seqChild(1_000_000_000, variant.MaybeOf(variant.Boxed(variant.Str("org.gnome.Maps")))),
		seqChild(2_000_000_000, variant.MaybeOf(variant.Boxed(variant.U32(0xdead)))),
		seqChild(3_000_000_000, variant.MaybeOf(variant.Boxed(variant.Tuple(variant.Bool(false))))),
		seqChild(9_000_000_000, variant.Nothing("v")),
	)
	ev := s.Sequence(context.Background(), testRequest(), domain.SequenceRecord{
		TypeID: appOpenID,
		Events: events,
	})

	if ev.Outcome != domain.OutcomeKnown {
		t.Fatalf("progress contaminated the outcome: %s %q", ev.Outcome, ev.Error)
	}
	if ev.Fields["app_id"] != "org.gnome.Maps" {
		t.Fatalf("fields = %v", ev.Fields)
	}
	// the stop child supplies only the timestamp
	if got := ev.StoppedAt.Sub(ev.StartedAt); got != 8*time.Second {
		t.Fatalf("span = %v, want 8s", got)
	}
}

func TestSequence_StopPayloadNeverInspected(t *testing.T) {
	s := testSvc(t)

	events := variant.Array("(xmv)",
		seqChild(1_000_000_000, variant.MaybeOf(variant.Boxed(variant.Str("org.gnome.Weather")))),
		seqChild(2_000_000_000, variant.MaybeOf(variant.Boxed(variant.U32(42)))), // would fail the schema
	)
	ev := s.Sequence(context.Background(), testRequest(), domain.SequenceRecord{
		TypeID: appOpenID,
		Events: events,
	})
	if ev.Outcome != domain.OutcomeKnown {
		t.Fatalf("stop payload was inspected: %s %q", ev.Outcome, ev.Error)
	}
}

func TestSequence_TooShort(t *testing.T) {
	s := testSvc(t)

	for n, events := range map[int]variant.Value{
		0: variant.Array("(xmv)"),
		1: variant.Array("(xmv)", seqChild(1, variant.Nothing("v"))),
	} {
		ev := s.Sequence(context.Background(), testRequest(), domain.SequenceRecord{
			TypeID: appOpenID,
			Events: events,
		})
		if ev.Outcome != domain.OutcomeInvalid {
			t.Fatalf("%d-element sequence accepted", n)
		}
		if !strings.Contains(ev.Error, "at least 2 elements") || !strings.Contains(ev.Error, strconv.Itoa(n)) {
			t.Fatalf("error = %q, want element count %d in it", ev.Error, n)
		}
		if !bytes.Equal(ev.Payload, events.Data()) {
			t.Fatalf("short sequence lost its encoding")
		}
		if !ev.StartedAt.IsZero() || !ev.StoppedAt.IsZero() {
			t.Fatalf("short sequence has timestamps")
		}
	}
}

func TestSequence_Unknown(t *testing.T) {
	s := testSvc(t)

	events := variant.Array("(xmv)",
		seqChild(1_000_000_000, variant.MaybeOf(variant.Boxed(variant.Str("x")))),
		seqChild(2_000_000_000, variant.Nothing("v")),
	)
	ev := s.Sequence(context.Background(), testRequest(), domain.SequenceRecord{
		TypeID: uuid.New(),
		Events: events,
	})

	if ev.Outcome != domain.OutcomeUnknown {
		t.Fatalf("outcome = %s, want unknown", ev.Outcome)
	}
	if !bytes.Equal(ev.Payload, events.Data()) {
		t.Fatalf("unknown sequence not kept verbatim")
	}
	// without a schema the session span is not reconstructed
	if !ev.StartedAt.IsZero() || !ev.StoppedAt.IsZero() {
		t.Fatalf("unknown sequence carries timestamps")
	}
}

func TestSequence_InvalidStartPayload(t *testing.T) {
	s := testSvc(t)

	events := variant.Array("(xmv)",
		seqChild(1_000_000_000, variant.MaybeOf(variant.Boxed(variant.U32(42)))),
		seqChild(2_000_000_000, variant.Nothing("v")),
	)
	ev := s.Sequence(context.Background(), testRequest(), domain.SequenceRecord{
		TypeID: appOpenID,
		Events: events,
	})

	if ev.Outcome != domain.OutcomeInvalid {
		t.Fatalf("outcome = %s, want invalid", ev.Outcome)
	}
	if !strings.Contains(ev.Error, "needs a s payload") {
		t.Fatalf("error = %q", ev.Error)
	}
	if !bytes.Equal(ev.Payload, events.Data()) {
		t.Fatalf("whole event list not kept")
	}
	if !ev.StartedAt.IsZero() || !ev.StoppedAt.IsZero() {
		t.Fatalf("invalid sequence carries timestamps")
	}
}
