package repo

// DDL creates the request table and the seven event tables.
// Unknown and invalid rows keep the payload encoding verbatim so they
// can be replayed once a schema lands; invalid rows also keep the
// decode error text. Unknown and invalid sequences carry no timestamps
// because reconstructing them requires a schema.
const DDL = `
CREATE TABLE IF NOT EXISTS request (
	id           BIGSERIAL PRIMARY KEY,
	sha512       TEXT        NOT NULL UNIQUE,
	received_at  TIMESTAMPTZ NOT NULL,
	absolute_ts  BIGINT      NOT NULL,
	relative_ts  BIGINT      NOT NULL,
	machine_id   TEXT        NOT NULL,
	send_number  INTEGER     NOT NULL
);

CREATE TABLE IF NOT EXISTS singular_event (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	fields        JSONB       NOT NULL
);

CREATE TABLE IF NOT EXISTS unknown_singular_event (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	payload_data  BYTEA
);

CREATE TABLE IF NOT EXISTS invalid_singular_event (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	payload_data  BYTEA,
	error         TEXT        NOT NULL
);

CREATE TABLE IF NOT EXISTS aggregate_event (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	count         BIGINT      NOT NULL,
	fields        JSONB       NOT NULL
);

CREATE TABLE IF NOT EXISTS unknown_aggregate_event (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	count         BIGINT      NOT NULL,
	payload_data  BYTEA
);

CREATE TABLE IF NOT EXISTS invalid_aggregate_event (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	count         BIGINT      NOT NULL,
	payload_data  BYTEA,
	error         TEXT        NOT NULL
);

CREATE TABLE IF NOT EXISTS sequence_event (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	stopped_at    TIMESTAMPTZ NOT NULL,
	fields        JSONB       NOT NULL
);

CREATE TABLE IF NOT EXISTS unknown_sequence (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	payload_data  BYTEA
);

CREATE TABLE IF NOT EXISTS invalid_sequence (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT      NOT NULL REFERENCES request (id),
	user_id       BIGINT      NOT NULL,
	event_type_id UUID        NOT NULL,
	payload_data  BYTEA,
	error         TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS singular_event_type_idx ON singular_event (event_type_id);
CREATE INDEX IF NOT EXISTS aggregate_event_type_idx ON aggregate_event (event_type_id);
CREATE INDEX IF NOT EXISTS sequence_event_type_idx ON sequence_event (event_type_id);
CREATE INDEX IF NOT EXISTS unknown_singular_event_type_idx ON unknown_singular_event (event_type_id);
CREATE INDEX IF NOT EXISTS unknown_aggregate_event_type_idx ON unknown_aggregate_event (event_type_id);
CREATE INDEX IF NOT EXISTS unknown_sequence_type_idx ON unknown_sequence (event_type_id);
`
