// Package api defines the contracts for API requests and responses.
// It decouples the API structure from the internal domain models.
package api

import (
	"encoding/json"
	"net/http"
)

// StartResearchRequest is the expected body for a POST /api/research request.
type StartResearchRequest struct {
	Topic string `json:"topic"`
}

// RunAcceptedResponse is returned when a research run has been queued.
type RunAcceptedResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// RunStatusResponse describes the state of a research run.
type RunStatusResponse struct {
	RunID     string          `json:"runId"`
	Topic     string          `json:"topic"`
	Status    string          `json:"status"`
	StartedAt string          `json:"startedAt"`
	EndedAt   string          `json:"endedAt,omitempty"`
	Error     string          `json:"error,omitempty"`
	Result    *ResultResponse `json:"result,omitempty"`
}

// ResultResponse is the API representation of a completed research run.
type ResultResponse struct {
	Topic      string             `json:"topic"`
	Outline    OutlineResponse    `json:"outline"`
	Citations  []CitationResponse `json:"citations"`
	Rounds     int                `json:"rounds"`
	Converged  bool               `json:"converged"`
	Interviews int                `json:"interviews"`
}

// OutlineResponse is the API representation of a structured outline.
type OutlineResponse struct {
	Title    string            `json:"title"`
	Sections []SectionResponse `json:"sections"`
	Version  int               `json:"version"`
}

// SectionResponse is a single outline section with nested children.
type SectionResponse struct {
	Title    string            `json:"title"`
	Summary  string            `json:"summary,omitempty"`
	Children []SectionResponse `json:"children,omitempty"`
}

// CitationResponse is one entry of the reference list.
type CitationResponse struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Success sends a standardized successful HTTP response with optional JSON data.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error sends a standardized error response with consistent JSON format.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
