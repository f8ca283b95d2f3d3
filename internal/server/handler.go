package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spanscore/spanscore/internal/bus"
	"github.com/spanscore/spanscore/internal/corpus"
	"github.com/spanscore/spanscore/internal/evaluation"
	"github.com/spanscore/spanscore/internal/history"
	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
	"github.com/spanscore/spanscore/internal/pkg/logger"
)

// maxRequestBody caps evaluation request bodies at 32 MiB.
const maxRequestBody = 32 << 20

// EvaluateRequest is the body of an evaluation API call. Corpus pages are
// inlined rather than referenced by path so the service stays stateless.
type EvaluateRequest struct {
	ReferencePages []corpus.ReferencePage `json:"reference_pages"`
	SystemPages    []corpus.SystemPage    `json:"system_pages"`

	IgnoreLabel        bool     `json:"ignore_label"`
	PartialMatchWeight *float64 `json:"partial_match_weight,omitempty"`
	SkipMissing        bool     `json:"skip_missing"`
}

// Handler serves the evaluation HTTP API.
type Handler struct {
	defaults evaluation.Options
	log      *logger.Logger
	bus      bus.Bus
	runs     history.Storage
}

// NewHandler creates an evaluation API handler. The bus and run store may be
// nil to disable publishing and history.
func NewHandler(defaults evaluation.Options, log *logger.Logger, eventBus bus.Bus, runs history.Storage) *Handler {
	if log == nil {
		log = logger.Default()
	}

	return &Handler{
		defaults: defaults,
		log:      log,
		bus:      eventBus,
		runs:     runs,
	}
}

// RegisterRoutes registers the evaluation API routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/evaluate", h.handleEvaluate)
	mux.HandleFunc("GET /v1/runs", h.handleListRuns)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidRequestError(fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	if len(req.ReferencePages) == 0 {
		apperrors.WriteError(w, apperrors.InvalidRequestError("reference_pages must not be empty"))
		return
	}

	opts := h.defaults
	opts.IgnoreLabel = req.IgnoreLabel
	opts.SkipMissing = req.SkipMissing
	if req.PartialMatchWeight != nil {
		if *req.PartialMatchWeight < 0 {
			apperrors.WriteError(w, apperrors.InvalidRequestError("partial_match_weight must not be negative"))
			return
		}
		opts.PartialMatchWeight = *req.PartialMatchWeight
	}

	startedAt := time.Now().UTC()
	run, err := evaluation.NewEvaluator(opts, h.log, h.bus).Run(r.Context(), req.ReferencePages, req.SystemPages)
	if err != nil {
		h.log.WithError(err).Warn("evaluation request failed")
		apperrors.WriteError(w, err)
		return
	}

	h.saveRun(r, startedAt, opts, run.Summary)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(run); err != nil {
		h.log.WithError(err).Error("failed to encode evaluation response")
	}
}

func (h *Handler) saveRun(r *http.Request, startedAt time.Time, opts evaluation.Options, summary evaluation.Summary) {
	if h.runs == nil {
		return
	}

	rec := history.RunRecord{
		ID:                 fmt.Sprintf("run-%d", startedAt.UnixNano()),
		StartedAt:          startedAt,
		IgnoreLabel:        opts.IgnoreLabel,
		PartialMatchWeight: opts.PartialMatchWeight,
		Summary:            summary,
	}
	if err := h.runs.SaveRun(r.Context(), rec); err != nil {
		// History is best-effort; the evaluation itself succeeded.
		h.log.WithError(err).Warn("failed to save run record")
	}
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		apperrors.WriteError(w, apperrors.New(apperrors.CodeUnavailable, "run history is not configured"))
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.WriteError(w, apperrors.InvalidRequestError("since must be an RFC 3339 timestamp"))
			return
		}
		since = parsed
	}

	runs, err := h.runs.ListRuns(r.Context(), since)
	if err != nil {
		h.log.WithError(err).Error("failed to list runs")
		apperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"runs": runs}); err != nil {
		h.log.WithError(err).Error("failed to encode runs response")
	}
}
