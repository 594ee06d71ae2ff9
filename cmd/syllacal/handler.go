package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"syllacal/pipeline"
	"syllacal/syllabus"
)

// runner is the slice of pipeline.Runner the handlers need; narrowed for
// testability.
type runner interface {
	Run(ctx context.Context, data []byte) (*pipeline.Result, error)
}

// uploadResponse is the success body for POST /v1/syllabus.
type uploadResponse struct {
	Events   []syllabus.Event         `json:"events"`
	Display  []syllabus.DisplayRecord `json:"display,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
	Rejected int                      `json:"rejected"`
}

// uploadHandler accepts a multipart document in the "file" field and runs
// the extraction pipeline. A missing or empty file is rejected before any
// pipeline work.
func uploadHandler(run runner, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, pipeline.KindNoFile.HTTPStatus(), map[string]string{"error": pipeline.KindNoFile.Message()})
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, pipeline.KindNoFile.HTTPStatus(), map[string]string{"error": pipeline.KindNoFile.Message()})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil || len(data) == 0 {
			writeJSON(w, pipeline.KindNoFile.HTTPStatus(), map[string]string{"error": pipeline.KindNoFile.Message()})
			return
		}

		res, err := run.Run(r.Context(), data)
		if err != nil {
			var perr *pipeline.Error
			if errors.As(err, &perr) {
				writeJSON(w, perr.Kind.HTTPStatus(), map[string]string{"error": perr.Kind.Message()})
				return
			}
			// Context cancellation or an unexpected shape; the client is
			// likely gone, answer generically.
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "processing failed"})
			return
		}

		resp := uploadResponse{
			Events:   res.Events,
			Warnings: res.Warnings,
			Rejected: len(res.Rejected),
		}
		if r.URL.Query().Get("view") == "display" {
			resp.Display = syllabus.ToDisplayRecords(res.Events)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// healthHandler reports liveness, including the observability store.
func healthHandler(obsDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if obsDB != nil {
			if err := obsDB.PingContext(r.Context()); err != nil {
				status = map[string]string{"status": "degraded", "observability": err.Error()}
				code = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, status)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
