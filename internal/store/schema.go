package store

// Schema is the DDL for the run-history database.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    message_id      TEXT NOT NULL,
    thread_id       TEXT,
    subject         TEXT,
    from_email      TEXT,
    major_category  TEXT NOT NULL,
    sub_action_key  TEXT NOT NULL,
    urgency         TEXT NOT NULL,
    confidence      REAL NOT NULL DEFAULT 0,
    explicit_task   INTEGER NOT NULL DEFAULT 0,
    model_version   TEXT,
    prompt_version  TEXT,
    created_at      TEXT NOT NULL,
    output_json     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key     TEXT PRIMARY KEY,
    value   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_message ON runs(message_id);
CREATE INDEX IF NOT EXISTS idx_runs_category ON runs(major_category);
CREATE INDEX IF NOT EXISTS idx_runs_urgency ON runs(urgency);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`
