// Package httpapi is the HTTP façade over the detector: one resource
// accepting either raw diff text or explicit removed/added line records
// and returning the detected moved blocks as JSON. Grounded in
// original_source/server/main.py's MovedBlocksResource, built on
// github.com/go-chi/chi/v5.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"movedblocks/internal/block"
	"movedblocks/internal/detector"
	"movedblocks/internal/diffparse"
	"movedblocks/internal/line"
)

// getMessage is the liveness body returned by GET /moved-blocks, kept
// verbatim from the original Falcon resource.
type getMessage struct {
	Message string `json:"message"`
}

// postRequest is the union of the two accepted POST shapes: diff_text, or
// removed_lines/added_lines.
type postRequest struct {
	DiffText     string        `json:"diff_text,omitempty"`
	RemovedLines []line.Record `json:"removed_lines,omitempty"`
	AddedLines   []line.Record `json:"added_lines,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the chi router exposing GET/POST /moved-blocks, running
// the detector with cfg.
func NewRouter(cfg detector.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/moved-blocks", handleGet)
	r.Post("/moved-blocks", handlePost(cfg))
	return r
}

func handleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, getMessage{Message: "Hello world!"})
}

func handlePost(cfg detector.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		removed, added, err := linesFromRequest(req)
		if err != nil {
			respondDetectorError(w, r, err)
			return
		}

		d, err := detector.New(removed, added, cfg)
		if err != nil {
			respondDetectorError(w, r, err)
			return
		}

		blocks := d.Detect()
		writeJSON(w, http.StatusOK, toRecords(blocks))
	}
}

func linesFromRequest(req postRequest) (removed, added []line.Line, err error) {
	if req.DiffText != "" {
		return diffparse.Parse(req.DiffText)
	}
	removed = make([]line.Line, len(req.RemovedLines))
	for i, rec := range req.RemovedLines {
		removed[i] = line.FromRecord(rec)
	}
	added = make([]line.Line, len(req.AddedLines))
	for i, rec := range req.AddedLines {
		added[i] = line.FromRecord(rec)
	}
	return removed, added, nil
}

func respondDetectorError(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *detector.MalformedLineRecordError
	if errors.As(err, &malformed) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.ErrorContext(r.Context(), "detector request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func toRecords(blocks []*block.MatchingBlock) []block.Record {
	out := make([]block.Record, len(blocks))
	for i, b := range blocks {
		out[i] = b.ToRecord()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
