package schema

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"eventsink/internal/platform/testkit"
	"eventsink/internal/services/events/domain"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	id := uuid.MustParse("9af2cc74-d6dd-423f-ac44-600a6eee2d96")

	if err := r.Register(domain.CategorySingular, id, Schema{Name: "uptime", PayloadType: "(xx)"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.Freeze()

	sch, ok := r.Lookup(domain.CategorySingular, id)
	if !ok {
		t.Fatalf("registered schema not found")
	}
	if sch.Name != "uptime" || sch.PayloadType != "(xx)" {
		t.Fatalf("wrong schema back: %+v", sch)
	}

	if _, ok := r.Lookup(domain.CategoryAggregate, id); ok {
		t.Fatalf("lookup crossed categories")
	}
	if _, ok := r.Lookup(domain.CategorySingular, uuid.New()); ok {
		t.Fatalf("lookup found an unregistered id")
	}
}

func TestRegistry_DuplicateSameCategory(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	if err := r.Register(domain.CategorySingular, id, Schema{Name: "first"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(domain.CategorySingular, id, Schema{Name: "second"})
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("err = %v, want ErrDuplicateRegistration", err)
	}

	// the original entry survives
	sch, ok := r.Lookup(domain.CategorySingular, id)
	if !ok || sch.Name != "first" {
		t.Fatalf("original entry gone: %+v ok=%v", sch, ok)
	}
}

func TestRegistry_DuplicateAcrossCategories(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	if err := r.Register(domain.CategorySingular, id, Schema{Name: "singular"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(domain.CategorySequence, id, Schema{Name: "sequence"})
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("cross-category duplicate accepted: %v", err)
	}
}

func TestRegistry_RegisterAfterFreezePanics(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	testkit.MustPanic(t, func() {
		_ = r.Register(domain.CategorySingular, uuid.New(), Schema{Name: "late"})
	})
}

func TestRegistry_Size(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(domain.CategorySingular, uuid.New(), Schema{Name: "a"})
	r.MustRegister(domain.CategoryAggregate, uuid.New(), Schema{Name: "b"})
	r.MustRegister(domain.CategorySequence, uuid.New(), Schema{Name: "c"})
	if got := r.Size(); got != 3 {
		t.Fatalf("Size = %d, want 3", got)
	}
}
