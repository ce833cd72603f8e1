package service

import (
	"context"
	"fmt"
	"time"

	"eventsink/internal/core/reconcile"
	"eventsink/internal/core/variant"
	"eventsink/internal/platform/logger"
	"eventsink/internal/services/events/domain"
	"eventsink/internal/services/events/schema"
)

// Sequence classifies one whole session. The first child is the start
// event, the last is the stop event; anything in between is progress and
// is discarded without inspection. Only the start payload is ever
// decoded. A sequence with fewer than two children has no stop event and
// is invalid outright.
func (s *Svc) Sequence(ctx context.Context, req *domain.Request, rec domain.SequenceRecord) domain.ClassifiedEvent {
	ev := domain.ClassifiedEvent{
		Category: domain.CategorySequence,
		TypeID:   rec.TypeID,
		UserID:   int64(rec.UserID),
	}

	n := rec.Events.NChildren()
	if n < 2 {
		ev.Outcome = domain.OutcomeInvalid
		ev.Payload = rec.Events.Data()
		ev.Error = fmt.Sprintf("sequence must have at least 2 elements, but only had %d", n)
		logger.C(ctx).Error().
			Str("type_id", ev.TypeID.String()).
			Int("elements", n).
			Msg("sequence too short")
		return ev
	}

	sch, ok := s.reg.Lookup(domain.CategorySequence, ev.TypeID)
	if !ok {
		ev.Outcome = domain.OutcomeUnknown
		ev.Payload = rec.Events.Data()
		logger.C(ctx).Debug().
			Str("type_id", ev.TypeID.String()).
			Msg("unrecognized sequence type")
		return ev
	}

	start, _ := rec.Events.Child(0)
	stop, _ := rec.Events.Child(n - 1)
	ev.StartedAt = reconcile.Absolute(req.AbsoluteTS, req.RelativeTS, childRelativeTS(start))
	ev.StoppedAt = reconcile.Absolute(req.AbsoluteTS, req.RelativeTS, childRelativeTS(stop))

	// the stop payload is never inspected, only the start payload is
	startPayload, _ := start.Child(1)
	fields, err := schema.Decode(ctx, ev.TypeID, sch, startPayload)
	if err != nil {
		ev.Outcome = domain.OutcomeInvalid
		ev.Payload = rec.Events.Data()
		ev.Error = err.Error()
		ev.StartedAt, ev.StoppedAt = time.Time{}, time.Time{}
		logger.C(ctx).Error().Err(err).
			Str("event", sch.Name).
			Str("type_id", ev.TypeID.String()).
			Msg("sequence payload decode failed")
		return ev
	}
	ev.Outcome = domain.OutcomeKnown
	ev.Fields = fields
	return ev
}

func childRelativeTS(child variant.Value) int64 {
	ts, _ := child.Child(0)
	rel, _ := ts.AsInt64()
	return rel
}
