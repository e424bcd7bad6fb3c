package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/votermatch/internal/match"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 10 << 20

// Matcher is the engine surface the handlers need
type Matcher interface {
	Match(ctx context.Context, people []match.PersonEntry, state string) (*match.Batch, error)
	ConfirmMatch(ctx context.Context, personEntryID string, record match.SafeRecord) (match.MatchResult, error)
	RejectMatch(ctx context.Context, personEntryID string) (match.MatchResult, error)
	Result(ctx context.Context, personEntryID string) (match.MatchResult, error)
	Forget(ctx context.Context, personEntryID string) error
	Degraded() bool
}

// Config holds handler limits
type Config struct {
	MaxBatchSize int
}

// MatchHandler serves the matching endpoints
type MatchHandler struct {
	Engine Matcher
	Config Config
}

// MatchRequest is the body of POST /api/match
type MatchRequest struct {
	State  string              `json:"state"`
	People []match.PersonEntry `json:"people"`
}

// EntryErrorResponse reports one skipped entry
type EntryErrorResponse struct {
	Index         int    `json:"index"`
	PersonEntryID string `json:"personEntryId"`
	Error         string `json:"error"`
}

// MatchResponse is the body of a successful POST /api/match
type MatchResponse struct {
	Results  []match.MatchResult  `json:"results"`
	Errors   []EntryErrorResponse `json:"errors"`
	Degraded bool                 `json:"degraded"`
	Stats    match.BatchStats     `json:"stats"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status   string `json:"status"`
	Degraded bool   `json:"degraded"`
}

// Match runs a batch and returns results and per-entry errors together
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON request")
		return
	}
	if len(req.People) == 0 {
		badRequest(w, "people must not be empty")
		return
	}
	if h.Config.MaxBatchSize > 0 && len(req.People) > h.Config.MaxBatchSize {
		badRequest(w, fmt.Sprintf("batch of %d exceeds limit of %d", len(req.People), h.Config.MaxBatchSize))
		return
	}

	batch, err := h.Engine.Match(r.Context(), req.People, req.State)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := MatchResponse{
		Results:  batch.Results,
		Errors:   make([]EntryErrorResponse, 0, len(batch.Errors)),
		Degraded: batch.Degraded,
		Stats:    batch.Stats(),
	}
	if resp.Results == nil {
		resp.Results = []match.MatchResult{}
	}
	for _, e := range batch.Errors {
		resp.Errors = append(resp.Errors, EntryErrorResponse{
			Index:         e.Index,
			PersonEntryID: e.PersonEntryID,
			Error:         e.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetResult returns the stored result of one person entry
func (h *MatchHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.Result(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DeleteResult forgets the result of a removed person entry
func (h *MatchHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Forget(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Confirm records the user's chosen record
func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var record match.SafeRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&record); err != nil {
		badRequest(w, "Invalid JSON request")
		return
	}
	result, err := h.Engine.ConfirmMatch(r.Context(), mux.Vars(r)["id"], record)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Reject records that none of the suggestions is this person
func (h *MatchHandler) Reject(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.RejectMatch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health reports liveness and whether retrieval is degraded
func (h *MatchHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Degraded: h.Engine.Degraded()}
	if resp.Degraded {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}
