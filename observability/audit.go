package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"syllacal/idgen"
)

// RunAudit is the audit record for one complete pipeline run.
type RunAudit struct {
	EntryID      string
	RequestID    string
	Timestamp    time.Time
	Status       string // "success", "error", "cancelled"
	ErrorKind    string
	ErrorMessage string
	EventCount   int
	Rejected     int
	Warnings     int
	Duration     time.Duration
}

// AuditLogger persists run-level audit entries asynchronously.
type AuditLogger struct {
	db    *sql.DB
	newID idgen.Generator
	ch    chan *RunAudit
	stop  chan struct{}
	done  chan struct{}
}

// AuditOption configures an AuditLogger.
type AuditOption func(*AuditLogger)

// WithAuditIDGenerator sets a custom ID generator for audit entry IDs.
func WithAuditIDGenerator(gen idgen.Generator) AuditOption {
	return func(a *AuditLogger) { a.newID = gen }
}

// NewAuditLogger creates an async audit logger. Recommended bufferSize: 1000.
func NewAuditLogger(db *sql.DB, bufferSize int, opts ...AuditOption) *AuditLogger {
	a := &AuditLogger{
		db:    db,
		newID: idgen.Prefixed("aud_", idgen.Default),
		ch:    make(chan *RunAudit, bufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	go a.flushLoop()
	return a
}

// Log inserts an audit entry synchronously.
func (a *AuditLogger) Log(ctx context.Context, entry *RunAudit) error {
	a.fillDefaults(entry)
	return a.insert(ctx, entry)
}

// LogAsync queues an entry for async persistence.
// Falls back to synchronous insert if the buffer is full.
func (a *AuditLogger) LogAsync(entry *RunAudit) {
	a.fillDefaults(entry)
	select {
	case a.ch <- entry:
	default:
		slog.Warn("observability audit buffer full, sync fallback", "request_id", entry.RequestID)
		if err := a.insert(context.Background(), entry); err != nil {
			slog.Error("observability audit: sync fallback failed", "error", err)
		}
	}
}

// Close drains the buffer and stops the flush goroutine.
func (a *AuditLogger) Close() {
	close(a.stop)
	<-a.done
}

func (a *AuditLogger) fillDefaults(entry *RunAudit) {
	if entry.EntryID == "" {
		entry.EntryID = a.newID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Status == "" {
		if entry.ErrorKind != "" {
			entry.Status = "error"
		} else {
			entry.Status = "success"
		}
	}
}

func (a *AuditLogger) insert(ctx context.Context, e *RunAudit) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO run_audit_log (
			entry_id, request_id, timestamp, status, error_kind, error_message,
			event_count, rejected_count, warning_count, duration_ms
		) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		e.EntryID, e.RequestID, e.Timestamp.Unix(), e.Status, e.ErrorKind, e.ErrorMessage,
		e.EventCount, e.Rejected, e.Warnings, e.Duration.Milliseconds())
	return err
}

func (a *AuditLogger) flushLoop() {
	defer close(a.done)
	for {
		select {
		case entry := <-a.ch:
			if err := a.insert(context.Background(), entry); err != nil {
				slog.Error("observability audit insert failed", "error", err)
			}
		case <-a.stop:
			// Drain remaining entries before exit.
			for {
				select {
				case entry := <-a.ch:
					if err := a.insert(context.Background(), entry); err != nil {
						slog.Error("observability audit drain failed", "error", err)
					}
				default:
					return
				}
			}
		}
	}
}
