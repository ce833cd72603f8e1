// Package repo provides Postgres persistence for requests and events
package repo

import (
	"context"

	"eventsink/internal/modkit/repokit"
	"eventsink/internal/services/events/domain"
)

// Storage is the persistence surface the service binds per transaction
type Storage interface {
	// InsertRequest stores the request row. When the dedup hash is
	// already on record it inserts nothing and reports inserted=false.
	InsertRequest(ctx context.Context, req *domain.Request) (id int64, inserted bool, err error)

	// InsertEvents stores every classified event under the request id,
	// routing each to its (category, outcome) table
	InsertEvents(ctx context.Context, requestID int64, evs []domain.ClassifiedEvent) error
}

// NewPG returns a binder producing Postgres-backed storage
func NewPG() repokit.Binder[Storage] {
	return repokit.BindFunc[Storage](func(q repokit.Queryer) Storage {
		return &pgStore{q: q}
	})
}
