// Package rest exposes the research engine over HTTP. Runs are started
// asynchronously: submitting a topic returns a run ID immediately, and the
// status, result, and rendered report are polled through follow-up requests.
package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/export"
	"research-backend/pkg/api"
	apperrors "research-backend/pkg/errors"
)

const maxTopicLength = 500

// ResearchRunner runs one research pipeline from topic to finished result.
type ResearchRunner interface {
	Run(ctx context.Context, topic string) (*domain.Result, error)
}

// Handler serves the research API endpoints.
type Handler struct {
	runner ResearchRunner
	runs   *Registry
	logger *zap.Logger
}

// NewHandler creates a Handler backed by the given runner and run registry.
func NewHandler(runner ResearchRunner, runs *Registry, logger *zap.Logger) *Handler {
	return &Handler{
		runner: runner,
		runs:   runs,
		logger: logger.Named("api"),
	}
}

// CreateResearch accepts a topic and starts a research run in the background.
func (h *Handler) CreateResearch(w http.ResponseWriter, r *http.Request) {
	var req api.StartResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		api.Error(w, http.StatusBadRequest, "topic is required")
		return
	}
	if len(topic) > maxTopicLength {
		api.Error(w, http.StatusBadRequest, "topic is too long")
		return
	}

	run := h.runs.Create(topic)
	h.logger.Info("research run accepted",
		zap.String("run_id", run.ID),
		zap.String("topic", topic),
	)

	go h.execute(run.ID, topic)

	api.Success(w, http.StatusAccepted, api.RunAcceptedResponse{
		RunID:  run.ID,
		Status: string(run.Status),
	})
}

// execute owns the lifecycle of one background run. The request context is
// deliberately not used: the run outlives the HTTP exchange that started it.
func (h *Handler) execute(id, topic string) {
	h.runs.MarkRunning(id)

	res, err := h.runner.Run(context.Background(), topic)
	if err != nil {
		h.logger.Warn("research run failed",
			zap.String("run_id", id),
			zap.Error(err),
		)
		h.runs.Fail(id, err)
		return
	}

	h.logger.Info("research run completed",
		zap.String("run_id", id),
		zap.Int("citations", len(res.Citations)),
		zap.Int("rounds", res.Rounds),
	)
	h.runs.Complete(id, res)
}

// GetResearch reports the current status of a run, including the result
// once the run has completed.
func (h *Handler) GetResearch(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(chi.URLParam(r, "runID"))
	if !ok {
		api.Error(w, http.StatusNotFound, "research run not found")
		return
	}
	api.Success(w, http.StatusOK, toStatusResponse(run))
}

// GetReport renders a completed run as a readable report. The format query
// parameter selects markdown (default) or html.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(chi.URLParam(r, "runID"))
	if !ok {
		api.Error(w, http.StatusNotFound, "research run not found")
		return
	}

	switch run.Status {
	case RunCompleted:
	case RunFailed:
		api.Error(w, statusForRunError(run.Err), run.Err.Error())
		return
	default:
		api.Error(w, http.StatusConflict, "research run has not finished")
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, export.Markdown(run.Result))
	case "html":
		page, err := export.HTML(run.Result)
		if err != nil {
			h.logger.Error("report rendering failed",
				zap.String("run_id", run.ID),
				zap.Error(err),
			)
			api.Error(w, http.StatusInternalServerError, "failed to render report")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, page)
	default:
		api.Error(w, http.StatusBadRequest, "unsupported report format")
	}
}

// Health answers liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusForRunError maps a run failure to the HTTP status a report request
// should answer with.
func statusForRunError(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsAborted(err):
		return http.StatusUnprocessableEntity
	case apperrors.IsUnavailable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toStatusResponse(run Run) api.RunStatusResponse {
	resp := api.RunStatusResponse{
		RunID:     run.ID,
		Topic:     run.Topic,
		Status:    string(run.Status),
		StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
	}
	if !run.EndedAt.IsZero() {
		resp.EndedAt = run.EndedAt.UTC().Format(time.RFC3339)
	}
	if run.Err != nil {
		resp.Error = run.Err.Error()
	}
	if run.Result != nil {
		result := toResultResponse(run.Result)
		resp.Result = &result
	}
	return resp
}

func toResultResponse(res *domain.Result) api.ResultResponse {
	return api.ResultResponse{
		Topic: res.Topic.Title,
		Outline: api.OutlineResponse{
			Title:    res.Outline.Title,
			Sections: toSectionResponses(res.Outline.Sections),
			Version:  res.Outline.Version,
		},
		Citations:  toCitationResponses(res.Citations),
		Rounds:     res.Rounds,
		Converged:  res.Converged,
		Interviews: len(res.Transcripts),
	}
}

func toSectionResponses(sections []domain.Section) []api.SectionResponse {
	out := make([]api.SectionResponse, 0, len(sections))
	for _, s := range sections {
		out = append(out, api.SectionResponse{
			Title:    s.Title,
			Summary:  s.Summary,
			Children: toSectionResponses(s.Children),
		})
	}
	return out
}

func toCitationResponses(citations []domain.Citation) []api.CitationResponse {
	out := make([]api.CitationResponse, 0, len(citations))
	for _, c := range citations {
		out = append(out, api.CitationResponse{
			Index: c.Index,
			URL:   c.URL,
			Title: c.Title,
		})
	}
	return out
}
