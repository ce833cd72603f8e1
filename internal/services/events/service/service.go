// Package service implements event classification and batch persistence
package service

import (
	"context"

	"eventsink/internal/core/reconcile"
	"eventsink/internal/core/variant"
	"eventsink/internal/modkit"
	"eventsink/internal/modkit/repokit"
	"eventsink/internal/platform/logger"
	"eventsink/internal/services/events/domain"
	"eventsink/internal/services/events/repo"
	"eventsink/internal/services/events/schema"
)

// Svc classifies wire records against the registry and commits batches.
// It implements domain.ClassifierPort and domain.WriterPort.
type Svc struct {
	log    logger.Logger
	reg    *schema.Registry
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
}

// New wires the service. The registry must already be frozen.
func New(deps modkit.Deps, reg *schema.Registry) *Svc {
	return &Svc{
		log:    deps.Log.With().Str("component", "events").Logger(),
		reg:    reg,
		db:     deps.PG,
		binder: repo.NewPG(),
	}
}

// Singular classifies one singular event
func (s *Svc) Singular(ctx context.Context, req *domain.Request, rec domain.SingularRecord) domain.ClassifiedEvent {
	ev := domain.ClassifiedEvent{
		Category:   domain.CategorySingular,
		TypeID:     rec.TypeID,
		UserID:     int64(rec.UserID),
		OccurredAt: reconcile.Absolute(req.AbsoluteTS, req.RelativeTS, rec.RelativeTS),
	}
	s.resolve(ctx, &ev, rec.Payload)
	return ev
}

// Aggregate classifies one aggregate event
func (s *Svc) Aggregate(ctx context.Context, req *domain.Request, rec domain.AggregateRecord) domain.ClassifiedEvent {
	ev := domain.ClassifiedEvent{
		Category:   domain.CategoryAggregate,
		TypeID:     rec.TypeID,
		UserID:     int64(rec.UserID),
		Count:      rec.Count,
		OccurredAt: reconcile.Absolute(req.AbsoluteTS, req.RelativeTS, rec.RelativeTS),
	}
	s.resolve(ctx, &ev, rec.Payload)
	return ev
}

// resolve runs the registry lookup and payload decode shared by the
// singular and aggregate paths, filling in outcome, fields, payload
// bytes and error text
func (s *Svc) resolve(ctx context.Context, ev *domain.ClassifiedEvent, payload variant.Value) {
	sch, ok := s.reg.Lookup(ev.Category, ev.TypeID)
	if !ok {
		ev.Outcome = domain.OutcomeUnknown
		ev.Payload = payload.Data()
		logger.C(ctx).Debug().
			Str("category", ev.Category.String()).
			Str("type_id", ev.TypeID.String()).
			Msg("unrecognized event type")
		return
	}

	fields, err := schema.Decode(ctx, ev.TypeID, sch, payload)
	if err != nil {
		ev.Outcome = domain.OutcomeInvalid
		ev.Payload = payload.Data()
		ev.Error = err.Error()
		logger.C(ctx).Error().Err(err).
			Str("category", ev.Category.String()).
			Str("event", sch.Name).
			Str("type_id", ev.TypeID.String()).
			Msg("payload decode failed")
		return
	}
	ev.Outcome = domain.OutcomeKnown
	ev.Fields = fields
}

// ClassifyAll classifies every record of a batch, singulars first, then
// aggregates, then sequences, each in wire order
func (s *Svc) ClassifyAll(ctx context.Context, b *domain.Batch) []domain.ClassifiedEvent {
	out := make([]domain.ClassifiedEvent, 0, len(b.Singulars)+len(b.Aggregates)+len(b.Sequences))
	for _, rec := range b.Singulars {
		out = append(out, s.Singular(ctx, &b.Request, rec))
	}
	for _, rec := range b.Aggregates {
		out = append(out, s.Aggregate(ctx, &b.Request, rec))
	}
	for _, rec := range b.Sequences {
		out = append(out, s.Sequence(ctx, &b.Request, rec))
	}
	return out
}

// CommitBatch stores the request row and its events in one transaction.
// A request whose hash is already on record is a duplicate upload: the
// transaction commits with nothing but the dedup probe, stored is false,
// and the events are dropped.
func (s *Svc) CommitBatch(ctx context.Context, b *domain.Batch, evs []domain.ClassifiedEvent) (bool, error) {
	var stored bool
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)

		id, inserted, err := r.InsertRequest(ctx, &b.Request)
		if err != nil {
			return err
		}
		if !inserted {
			s.log.Debug().
				Str("sha512", b.Request.SHA512).
				Msg("duplicate request, dropping events")
			return nil
		}
		stored = true
		b.Request.ID = id
		return r.InsertEvents(ctx, id, evs)
	})
	if err != nil {
		return false, err
	}
	return stored, nil
}
