package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mbicorp/adbid-engine/internal/engineerr"
	"github.com/mbicorp/adbid-engine/internal/notify"
	"github.com/mbicorp/adbid-engine/internal/orchestrator"
)

// runRequest is the common JSON body every cron/trigger POST accepts (§6
// "Every POST accepts { dryRun?: bool, ... }").
type runRequest struct {
	DryRun          bool     `json:"dryRun"`
	ScopeProductIDs []string `json:"scopeProductIds"`
}

func decodeRunRequest(r *http.Request) (runRequest, error) {
	var req runRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

func (req runRequest) toOptions() orchestrator.RunOptions {
	return orchestrator.RunOptions{DryRun: req.DryRun, ScopeProductIDs: req.ScopeProductIDs}
}

// summaryResponse is the §6 success body: executionId, action counts, and a
// per-record summary.
type summaryResponse struct {
	ExecutionID  string         `json:"executionId"`
	Engine       string         `json:"engine"`
	Mode         string         `json:"mode"`
	DryRun       bool           `json:"dryRun"`
	TotalRecords int            `json:"totalRecords"`
	ActionCounts map[string]int `json:"actionCounts"`
	ErrorCount   int            `json:"errorCount"`
	Errors       []string       `json:"errors,omitempty"`
	DurationMS   int64          `json:"durationMs"`
}

func summaryResponseOf(s notify.Summary) summaryResponse {
	return summaryResponse{
		ExecutionID:  s.ExecutionID,
		Engine:       s.Engine,
		Mode:         s.Mode,
		DryRun:       s.DryRun,
		TotalRecords: s.TotalRecords,
		ActionCounts: s.ActionCounts,
		ErrorCount:   s.ErrorCount,
		Errors:       s.Errors,
		DurationMS:   s.Duration.Milliseconds(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the engineerr taxonomy onto the §6 exit codes: 400 for
// ValidationError, 500 for anything else.
func writeError(w http.ResponseWriter, err error) {
	var verr *engineerr.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"fields": verr.Fields})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, engineerr.NewValidationError(engineerr.FieldError{Field: "id", Message: "must be an integer"})
	}
	return id, nil
}
