package observability

import "database/sql"

// Schema contains the complete DDL for the observability tables.
// Call Init(db) to apply it, or embed the constant in your own schema
// management.
const Schema = `
-- Pipeline stage events: one row per stage boundary per run.
CREATE TABLE IF NOT EXISTS pipeline_stage_events (
    event_id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    success INTEGER NOT NULL,
    detail TEXT,
    duration_ms INTEGER NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_stage_events_request
    ON pipeline_stage_events(request_id);
CREATE INDEX IF NOT EXISTS idx_stage_events_stage_time
    ON pipeline_stage_events(stage, created_at DESC);

-- Run audit log: one row per pipeline run.
CREATE TABLE IF NOT EXISTS run_audit_log (
    entry_id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    status TEXT NOT NULL,
    error_kind TEXT,
    error_message TEXT,
    event_count INTEGER NOT NULL DEFAULT 0,
    rejected_count INTEGER NOT NULL DEFAULT 0,
    warning_count INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_audit_time
    ON run_audit_log(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_run_audit_status
    ON run_audit_log(status, timestamp DESC);

-- Worker heartbeats: liveness probes with runtime metrics.
CREATE TABLE IF NOT EXISTS worker_heartbeats (
    heartbeat_id TEXT PRIMARY KEY DEFAULT ('hb_' || hex(randomblob(16))),
    worker_name TEXT NOT NULL,
    hostname TEXT NOT NULL,
    worker_pid INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    goroutines_count INTEGER,
    memory_alloc_mb REAL,
    memory_sys_mb REAL,
    gc_count INTEGER
);
CREATE INDEX IF NOT EXISTS idx_heartbeats_worker_time
    ON worker_heartbeats(worker_name, timestamp DESC);
`

// Init applies the observability schema to db.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
