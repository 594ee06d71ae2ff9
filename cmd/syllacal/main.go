// Entry point for the syllacal HTTP service: syllabus document in, calendar
// events out. Optional MCP stdio transport exposes the same pipeline as a
// tool.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"syllacal/dbopen"
	"syllacal/docpipe"
	"syllacal/idgen"
	"syllacal/kit"
	"syllacal/llm"
	"syllacal/observability"
	"syllacal/pipeline"
)

func main() {
	cfgPath := ""
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Observability DB — separate store, never on the request path's
	// critical section.
	obsDB, err := dbopen.Open(cfg.ObservabilityDB, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
	if err != nil {
		slog.Error("observability db", "error", err)
		os.Exit(1)
	}
	defer obsDB.Close()

	events := observability.NewEventLogger(obsDB)
	audit := observability.NewAuditLogger(obsDB, 1000)
	defer audit.Close()

	heartbeat := observability.NewHeartbeatWriter(obsDB, "syllacal", 15*time.Second)
	heartbeat.Start(ctx)
	defer heartbeat.Stop()

	// Completion backend. The credential is read here once and scoped to
	// the client instance.
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		slog.Error("missing completion API key", "env", cfg.LLM.APIKeyEnv)
		os.Exit(1)
	}
	client, err := llm.New(llm.Config{
		APIKey:         apiKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		MaxRetries:     cfg.LLM.MaxRetries,
		RetryBase:      time.Duration(cfg.LLM.RetryBase),
		AttemptTimeout: time.Duration(cfg.LLM.AttemptTimeout),
		Logger:         logger,
	})
	if err != nil {
		slog.Error("llm client", "error", err)
		os.Exit(1)
	}

	extractor := docpipe.New(docpipe.Config{
		MaxInputSize: cfg.MaxUploadBytes,
		Logger:       logger,
	})

	runnerImpl := pipeline.New(extractor, client, pipeline.Config{
		DefaultYear: cfg.DefaultYear,
		Logger:      logger,
		Events:      events,
		Audit:       audit,
	})

	// Optional MCP stdio transport.
	if cfg.MCPTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "syllacal",
			Version: "1.0.0",
		}, nil)
		runnerImpl.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Router.
	reqIDGen := idgen.Prefixed("req_", idgen.Default)
	r := chi.NewRouter()
	r.Use(requestContextMiddleware(reqIDGen))
	r.Get("/v1/health", healthHandler(obsDB))
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
		r.Post("/v1/syllabus", uploadHandler(runnerImpl, cfg.MaxUploadBytes))
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute, // pipeline runs can be slow
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// requestContextMiddleware enriches the request context with a request ID so
// logs, stage events, and audit entries correlate.
func requestContextMiddleware(reqIDGen idgen.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := reqIDGen()
			ctx := kit.WithRequestID(r.Context(), reqID)
			ctx = kit.WithTransport(ctx, "http")

			w.Header().Set("X-Request-ID", reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
