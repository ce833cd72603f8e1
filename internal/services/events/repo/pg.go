package repo

import (
	"context"

	"eventsink/internal/modkit/repokit"
	perr "eventsink/internal/platform/errors"
	"eventsink/internal/platform/store"
	"eventsink/internal/services/events/domain"
)

type pgStore struct {
	q repokit.Queryer
}

const insertRequestSQL = `
	INSERT INTO request (sha512, received_at, absolute_ts, relative_ts, machine_id, send_number)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (sha512) DO NOTHING
`

const selectRequestIDSQL = `SELECT id FROM request WHERE sha512 = $1`

func (s *pgStore) InsertRequest(ctx context.Context, req *domain.Request) (int64, bool, error) {
	tag, err := store.Exec(ctx, s.q, insertRequestSQL,
		req.SHA512, req.ReceivedAt, req.AbsoluteTS, req.RelativeTS, req.MachineID, req.SendNumber)
	if err != nil {
		return 0, false, perr.FromPostgres(err, "insert request")
	}
	if tag.RowsAffected() == 0 {
		return 0, false, nil
	}
	id, err := store.Scalar[int64](ctx, s.q, selectRequestIDSQL, req.SHA512)
	if err != nil {
		return 0, false, perr.FromPostgres(err, "select request id")
	}
	return id, true, nil
}

// one insert statement per (category, outcome) table
var insertSQL = map[domain.Category]map[domain.Outcome]string{
	domain.CategorySingular: {
		domain.OutcomeKnown: `
			INSERT INTO singular_event (request_id, user_id, event_type_id, occurred_at, fields)
			VALUES ($1, $2, $3, $4, $5)`,
		domain.OutcomeUnknown: `
			INSERT INTO unknown_singular_event (request_id, user_id, event_type_id, occurred_at, payload_data)
			VALUES ($1, $2, $3, $4, $5)`,
		domain.OutcomeInvalid: `
			INSERT INTO invalid_singular_event (request_id, user_id, event_type_id, occurred_at, payload_data, error)
			VALUES ($1, $2, $3, $4, $5, $6)`,
	},
	domain.CategoryAggregate: {
		domain.OutcomeKnown: `
			INSERT INTO aggregate_event (request_id, user_id, event_type_id, occurred_at, count, fields)
			VALUES ($1, $2, $3, $4, $5, $6)`,
		domain.OutcomeUnknown: `
			INSERT INTO unknown_aggregate_event (request_id, user_id, event_type_id, occurred_at, count, payload_data)
			VALUES ($1, $2, $3, $4, $5, $6)`,
		domain.OutcomeInvalid: `
			INSERT INTO invalid_aggregate_event (request_id, user_id, event_type_id, occurred_at, count, payload_data, error)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	},
	domain.CategorySequence: {
		domain.OutcomeKnown: `
			INSERT INTO sequence_event (request_id, user_id, event_type_id, started_at, stopped_at, fields)
			VALUES ($1, $2, $3, $4, $5, $6)`,
		domain.OutcomeUnknown: `
			INSERT INTO unknown_sequence (request_id, user_id, event_type_id, payload_data)
			VALUES ($1, $2, $3, $4)`,
		domain.OutcomeInvalid: `
			INSERT INTO invalid_sequence (request_id, user_id, event_type_id, payload_data, error)
			VALUES ($1, $2, $3, $4, $5)`,
	},
}

func (s *pgStore) InsertEvents(ctx context.Context, requestID int64, evs []domain.ClassifiedEvent) error {
	for i := range evs {
		ev := &evs[i]
		sql := insertSQL[ev.Category][ev.Outcome]
		if err := store.ExecOne(ctx, s.q, sql, eventArgs(requestID, ev)...); err != nil {
			return perr.FromPostgresf(err, "insert %s %s event", ev.Outcome, ev.Category)
		}
	}
	return nil
}

// eventArgs lays the arguments out in the column order of the matching
// insert statement
func eventArgs(requestID int64, ev *domain.ClassifiedEvent) []any {
	args := []any{requestID, ev.UserID, ev.TypeID}

	switch ev.Category {
	case domain.CategorySingular:
		args = append(args, ev.OccurredAt)
	case domain.CategoryAggregate:
		args = append(args, ev.OccurredAt, ev.Count)
	case domain.CategorySequence:
		if ev.Outcome == domain.OutcomeKnown {
			args = append(args, ev.StartedAt, ev.StoppedAt)
		}
	}

	switch ev.Outcome {
	case domain.OutcomeKnown:
		args = append(args, ev.Fields)
	case domain.OutcomeUnknown:
		args = append(args, ev.Payload)
	case domain.OutcomeInvalid:
		args = append(args, ev.Payload, ev.Error)
	}
	return args
}
