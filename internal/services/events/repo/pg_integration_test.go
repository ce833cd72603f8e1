//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/google/uuid"

	"eventsink/internal/platform/store"
	"eventsink/internal/services/events/domain"
)

// startPostgres boots a throwaway postgres container; generous timeouts
// for the first image pull
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func applyDDL(t *testing.T, ctx context.Context, q store.RowQuerier) {
	t.Helper()
	// one statement per Exec keeps the extended protocol happy
	for _, stmt := range strings.Split(DDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := q.Exec(ctx, stmt); err != nil {
			t.Fatalf("ddl statement failed: %v\n%s", err, stmt)
		}
	}
}

func TestStorage_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "eventsink-repo-integration",
		PG: store.PGConfig{
			Enabled:  true,
			URL:      dsn,
			MaxConns: 4,
		},
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = st.Close(ctx) }()

	applyDDL(t, ctx, st.PG)

	binder := NewPG()
	r := binder.Bind(st.PG)

	req := &domain.Request{
		SHA512:     strings.Repeat("ab", 64),
		ReceivedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		AbsoluteTS: 1709287200000000000,
		RelativeTS: 420000000000,
		MachineID:  strings.Repeat("ff", 16),
		SendNumber: 3,
	}

	id, inserted, err := r.InsertRequest(ctx, req)
	if err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first insert to store the request")
	}
	if id == 0 {
		t.Fatalf("expected a request id, got 0")
	}

	// same sha512 again is a duplicate
	dupID, dupInserted, err := r.InsertRequest(ctx, req)
	if err != nil {
		t.Fatalf("InsertRequest duplicate: %v", err)
	}
	if dupInserted || dupID != 0 {
		t.Fatalf("duplicate request must report (0, false), got (%d, %v)", dupID, dupInserted)
	}

	occurred := time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC)
	evs := []domain.ClassifiedEvent{
		{
			Category:   domain.CategorySingular,
			Outcome:    domain.OutcomeKnown,
			TypeID:     uuid.MustParse("9af2cc74-d6dd-423f-ac44-600a6eee2d96"),
			UserID:     1000,
			OccurredAt: occurred,
			Fields:     domain.FieldSet{"accumulated_uptime": int64(7), "number_of_boots": int64(2)},
		},
		{
			Category:   domain.CategoryAggregate,
			Outcome:    domain.OutcomeUnknown,
			TypeID:     uuid.MustParse("00000000-0000-0000-0000-000000000bad"),
			UserID:     1001,
			OccurredAt: occurred,
			Count:      -3,
			Payload:    []byte{0x01, 0x02, 0x03},
		},
		{
			Category: domain.CategorySequence,
			Outcome:  domain.OutcomeInvalid,
			TypeID:   uuid.MustParse("b5e11a3d-13f8-4219-84fd-c9ba0bf3d1f0"),
			UserID:   1002,
			Payload:  []byte{0x04, 0x05},
			Error:    "sequence must have at least 2 elements, but only had 1",
		},
	}
	if err := r.InsertEvents(ctx, id, evs); err != nil {
		t.Fatalf("InsertEvents: %v", err)
	}

	for _, tt := range []struct {
		table string
		want  int64
	}{
		{"request", 1},
		{"singular_event", 1},
		{"unknown_aggregate_event", 1},
		{"invalid_sequence", 1},
		{"unknown_singular_event", 0},
		{"sequence_event", 0},
	} {
		got, err := store.Scalar[int64](ctx, st.PG, "SELECT count(*) FROM "+tt.table)
		if err != nil {
			t.Fatalf("count %s: %v", tt.table, err)
		}
		if got != tt.want {
			t.Fatalf("%s rows = %d, want %d", tt.table, got, tt.want)
		}
	}

	var count int64
	var errText string
	row := st.PG.QueryRow(ctx, "SELECT count, payload_data IS NOT NULL FROM unknown_aggregate_event WHERE user_id = 1001")
	var hasPayload bool
	if err := row.Scan(&count, &hasPayload); err != nil {
		t.Fatalf("read unknown aggregate: %v", err)
	}
	if count != -3 || !hasPayload {
		t.Fatalf("unknown aggregate row = (count=%d, payload=%v)", count, hasPayload)
	}

	row = st.PG.QueryRow(ctx, "SELECT error FROM invalid_sequence WHERE user_id = 1002")
	if err := row.Scan(&errText); err != nil {
		t.Fatalf("read invalid sequence: %v", err)
	}
	if !strings.Contains(errText, "at least 2 elements") {
		t.Fatalf("invalid sequence error = %q", errText)
	}
}
