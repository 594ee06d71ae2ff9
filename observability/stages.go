// Package observability records pipeline diagnostics in a dedicated SQLite
// database: per-stage events, per-run audit entries, and worker heartbeats.
// All writes are fire-and-forget; a failing observability store never blocks
// or fails a request.
package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"syllacal/dbopen"
	"syllacal/idgen"
)

// Stage names recorded at pipeline boundaries.
const (
	StageExtraction = "extraction_done"
	StagePrompt     = "prompt_built"
	StageInvocation = "invocation_done"
	StageValidation = "validation_done"
)

// StageEvent is a single pipeline-stage boundary record.
type StageEvent struct {
	RequestID string
	Stage     string
	Success   bool
	Detail    string // optional, e.g. "chars=1234" or an error kind
	Duration  time.Duration
}

// EventLogger writes stage events to the observability database.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given observability database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogStage records a stage event. Errors are logged via slog but do not
// propagate.
func (l *EventLogger) LogStage(ctx context.Context, ev StageEvent) {
	success := 0
	if ev.Success {
		success = 1
	}
	_, err := dbopen.Exec(ctx, l.db, `
		INSERT INTO pipeline_stage_events (
			event_id, request_id, stage, success, detail, duration_ms
		) VALUES (?,?,?,?,?,?)`,
		l.newID(), ev.RequestID, ev.Stage, success, ev.Detail, ev.Duration.Milliseconds())
	if err != nil {
		slog.Error("observability stage event failed", "error", err, "stage", ev.Stage)
	}
}
