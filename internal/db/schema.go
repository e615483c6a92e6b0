package db

// runEventsChannel is the NOTIFY channel the insert trigger publishes to and
// the worker listens on.
const runEventsChannel = "run_events"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'PENDING',
	leads_count INTEGER,
	error       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);

CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	company      TEXT NOT NULL,
	domain       TEXT,
	description  TEXT,
	website_text TEXT,
	summary      TEXT,
	email_draft  TEXT,
	status       TEXT NOT NULL DEFAULT 'NEW',
	source       TEXT NOT NULL DEFAULT 'google-serp',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads (run_id);

CREATE TABLE IF NOT EXISTS app_secrets (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE OR REPLACE FUNCTION notify_run_inserted() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('run_events', json_build_object(
		'op', TG_OP,
		'id', NEW.id,
		'query', NEW.query
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS runs_notify_insert ON runs;
CREATE TRIGGER runs_notify_insert
	AFTER INSERT ON runs
	FOR EACH ROW
	EXECUTE FUNCTION notify_run_inserted();
`
