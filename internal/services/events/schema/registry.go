// Package schema holds the event type registry and the payload decoder.
// A Schema binds an event type identifier to its payload signature and a
// field extractor; the registry is built once at startup, frozen, and
// read lock-free by every worker after that.
package schema

import (
	"sync"
	"sync/atomic"

	"eventsink/internal/core/variant"
	perr "eventsink/internal/platform/errors"
	"eventsink/internal/services/events/domain"
)

// Extractor turns an unboxed payload into named fields.
// The payload is guaranteed to match the schema's PayloadType by the
// time an extractor runs.
type Extractor func(payload variant.Value) (domain.FieldSet, error)

// Schema describes how to interpret one event type's payload
type Schema struct {
	// Name is the human label used in logs and diagnostics
	Name string

	// PayloadType is the expected payload signature after unboxing.
	// Empty means the event carries no payload at all.
	PayloadType string

	// Extract produces the typed fields. Nil is allowed when
	// PayloadType is empty.
	Extract Extractor
}

// ErrDuplicateRegistration reports a type identifier registered twice,
// under any category
var ErrDuplicateRegistration = perr.New(perr.ErrorCodeConflict, "schema: event type already registered")

// Registry maps (category, type id) to schemas
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool
	byCat  [3]map[domain.EventTypeID]Schema
}

// NewRegistry returns an empty, unfrozen registry
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.byCat {
		r.byCat[i] = make(map[domain.EventTypeID]Schema)
	}
	return r
}

// Register adds a schema under the given category. A type identifier may
// appear at most once across the whole registry: re-registering it, even
// under a different category, returns ErrDuplicateRegistration and leaves
// the existing entry untouched. Registering after Freeze panics.
func (r *Registry) Register(cat domain.Category, id domain.EventTypeID, s Schema) error {
	if r.frozen.Load() {
		panic("schema: register after freeze")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.byCat {
		if _, dup := m[id]; dup {
			return perr.Wrapf(ErrDuplicateRegistration, perr.ErrorCodeConflict, "type %s (%s)", id, s.Name)
		}
	}
	r.byCat[cat][id] = s
	return nil
}

// MustRegister is Register for startup wiring, panicking on duplicates
func (r *Registry) MustRegister(cat domain.Category, id domain.EventTypeID, s Schema) {
	if err := r.Register(cat, id, s); err != nil {
		panic(err)
	}
}

// Freeze ends the registration phase. After Freeze, Lookup needs no
// synchronization and Register panics.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Lookup resolves a type identifier within one category
func (r *Registry) Lookup(cat domain.Category, id domain.EventTypeID) (Schema, bool) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	s, ok := r.byCat[cat][id]
	return s, ok
}

// Size reports the total number of registered schemas, for startup logs
func (r *Registry) Size() int {
	n := 0
	for _, m := range r.byCat {
		n += len(m)
	}
	return n
}
