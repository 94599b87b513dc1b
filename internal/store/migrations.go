package store

// migration holds a single schema migration with its target version and SQL
// for each dialect.
type migration struct {
	version  int
	sqlite   string
	postgres string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sqlite: `
CREATE TABLE IF NOT EXISTS tracked_processes (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	process_number            TEXT NOT NULL,
	email                     TEXT NOT NULL,
	last_movement_count       INTEGER NOT NULL DEFAULT 0,
	last_movement_at          DATETIME,
	last_movement_description TEXT,
	last_checked_at           DATETIME,
	label                     TEXT,
	priority                  TEXT NOT NULL DEFAULT 'Não definido',
	favorite                  INTEGER NOT NULL DEFAULT 0,
	created_at                DATETIME NOT NULL,
	UNIQUE (email, process_number)
);

CREATE TABLE IF NOT EXISTS movement_records (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	process_id    INTEGER NOT NULL REFERENCES tracked_processes(id) ON DELETE CASCADE,
	moved_at      DATETIME NOT NULL,
	description   TEXT NOT NULL,
	discovered_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_movement_records_process ON movement_records(process_id);
CREATE INDEX IF NOT EXISTS idx_movement_records_discovered ON movement_records(discovered_at);

CREATE TABLE IF NOT EXISTS notification_events (
	id         TEXT PRIMARY KEY,
	process_id INTEGER NOT NULL REFERENCES tracked_processes(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	sent_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notification_events_process ON notification_events(process_id);
`,
		postgres: `
CREATE TABLE IF NOT EXISTS tracked_processes (
	id                        BIGSERIAL PRIMARY KEY,
	process_number            TEXT NOT NULL,
	email                     TEXT NOT NULL,
	last_movement_count       INTEGER NOT NULL DEFAULT 0,
	last_movement_at          TIMESTAMPTZ,
	last_movement_description TEXT,
	last_checked_at           TIMESTAMPTZ,
	label                     TEXT,
	priority                  TEXT NOT NULL DEFAULT 'Não definido',
	favorite                  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at                TIMESTAMPTZ NOT NULL,
	UNIQUE (email, process_number)
);

CREATE TABLE IF NOT EXISTS movement_records (
	id            BIGSERIAL PRIMARY KEY,
	process_id    BIGINT NOT NULL REFERENCES tracked_processes(id) ON DELETE CASCADE,
	moved_at      TIMESTAMPTZ NOT NULL,
	description   TEXT NOT NULL,
	discovered_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_movement_records_process ON movement_records(process_id);
CREATE INDEX IF NOT EXISTS idx_movement_records_discovered ON movement_records(discovered_at);

CREATE TABLE IF NOT EXISTS notification_events (
	id         TEXT PRIMARY KEY,
	process_id BIGINT NOT NULL REFERENCES tracked_processes(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	sent_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notification_events_process ON notification_events(process_id);
`,
	},
}
