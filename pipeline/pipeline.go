// Package pipeline orchestrates the syllabus extraction stages: document
// text extraction, prompt construction, completion invocation, and response
// normalization. One document in, one validated event list out; stages run
// strictly in sequence and share no state between requests.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"syllacal/kit"
	"syllacal/observability"
	"syllacal/syllabus"
)

// Extractor turns an uploaded payload into plain text.
type Extractor interface {
	ExtractBytes(ctx context.Context, data []byte) (string, error)
}

// Invoker sends a prompt to the completion backend and returns the raw
// completion text.
type Invoker interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of a successful run.
type Result struct {
	Events   []syllabus.Event  `json:"events"`
	Warnings []string          `json:"warnings,omitempty"`
	Rejected []syllabus.Reject `json:"rejected,omitempty"`
}

// Config configures a Runner.
type Config struct {
	// DefaultYear is assumed for dates without an explicit year.
	DefaultYear int `yaml:"default_year"`

	Logger *slog.Logger `yaml:"-"`

	// Events and Audit are optional; a nil logger disables that sink.
	Events *observability.EventLogger `yaml:"-"`
	Audit  *observability.AuditLogger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.DefaultYear == 0 {
		c.DefaultYear = time.Now().Year()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Runner sequences the extraction stages.
type Runner struct {
	extractor Extractor
	invoker   Invoker
	cfg       Config
	logger    *slog.Logger
}

// New creates a Runner over the given collaborators.
func New(extractor Extractor, invoker Invoker, cfg Config) *Runner {
	cfg.defaults()
	return &Runner{
		extractor: extractor,
		invoker:   invoker,
		cfg:       cfg,
		logger:    cfg.Logger,
	}
}

// Run executes the pipeline for one document. Every failure is mapped to a
// *Error carrying one of the external Kinds; context cancellation is
// returned as the raw context error.
func (r *Runner) Run(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()
	reqID := kit.GetRequestID(ctx)
	log := r.logger.With("request_id", reqID)

	if len(data) == 0 {
		return nil, r.fail(ctx, log, start, KindNoFile, nil)
	}

	// Stage 1: text extraction.
	stageStart := time.Now()
	text, err := r.extractor.ExtractBytes(ctx, data)
	r.logStage(ctx, observability.StageExtraction, reqID, err == nil, fmt.Sprintf("chars=%d", len(text)), stageStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, r.fail(ctx, log, start, KindExtraction, err)
	}
	log.Debug("extraction done", "chars", len(text))

	// Stage 2: prompt construction.
	stageStart = time.Now()
	prompt, truncated := syllabus.BuildPrompt(text, r.cfg.DefaultYear)
	r.logStage(ctx, observability.StagePrompt, reqID, true, fmt.Sprintf("truncated=%t", truncated), stageStart)
	var warnings []string
	if truncated {
		warnings = append(warnings, fmt.Sprintf("input truncated to %d characters; trailing content was not analysed", syllabus.MaxPromptChars))
		log.Warn("prompt input truncated", "limit", syllabus.MaxPromptChars)
	}

	// Stage 3: completion invocation.
	stageStart = time.Now()
	raw, err := r.invoker.Complete(ctx, prompt)
	r.logStage(ctx, observability.StageInvocation, reqID, err == nil, "", stageStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, r.fail(ctx, log, start, KindInvocation, err)
	}
	log.Debug("invocation done", "response_chars", len(raw))

	// Stage 4: validation and normalization.
	stageStart = time.Now()
	events, rejects, err := syllabus.Normalize(raw)
	r.logStage(ctx, observability.StageValidation, reqID, err == nil,
		fmt.Sprintf("valid=%d rejected=%d", len(events), len(rejects)), stageStart)
	if err != nil {
		return nil, r.fail(ctx, log, start, KindValidation, err)
	}
	if len(rejects) > 0 {
		log.Warn("rejected malformed event candidates", "count", len(rejects))
	}

	res := &Result{Events: events, Warnings: warnings, Rejected: rejects}
	r.audit(&observability.RunAudit{
		RequestID:  reqID,
		EventCount: len(events),
		Rejected:   len(rejects),
		Warnings:   len(warnings),
		Duration:   time.Since(start),
	})
	log.Info("pipeline complete", "events", len(events), "rejected", len(rejects), "duration", time.Since(start))
	return res, nil
}

func (r *Runner) fail(ctx context.Context, log *slog.Logger, start time.Time, kind Kind, cause error) error {
	err := NewError(kind, cause)
	log.Error("pipeline failed", "kind", string(kind), "error", err)
	r.audit(&observability.RunAudit{
		RequestID:    kit.GetRequestID(ctx),
		ErrorKind:    string(kind),
		ErrorMessage: err.Error(),
		Duration:     time.Since(start),
	})
	return err
}

func (r *Runner) logStage(ctx context.Context, stage, reqID string, success bool, detail string, start time.Time) {
	if r.cfg.Events == nil {
		return
	}
	// Stage events survive request cancellation.
	r.cfg.Events.LogStage(context.WithoutCancel(ctx), observability.StageEvent{
		RequestID: reqID,
		Stage:     stage,
		Success:   success,
		Detail:    detail,
		Duration:  time.Since(start),
	})
}

func (r *Runner) audit(entry *observability.RunAudit) {
	if r.cfg.Audit == nil {
		return
	}
	r.cfg.Audit.LogAsync(entry)
}
