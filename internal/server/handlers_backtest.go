package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mbicorp/adbid-engine/internal/engineerr"
	"github.com/mbicorp/adbid-engine/internal/orchestrator"
)

type backtestRunRequest struct {
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Granularity    string   `json:"granularity"`
	MarginRate     float64  `json:"marginRate"`
	ASINFilter     []string `json:"asinFilter"`
	CampaignFilter []string `json:"campaignFilter"`
	DryRun         bool     `json:"dryRun"`
}

const dateLayout = "2006-01-02"

func (req backtestRunRequest) toParams() (orchestrator.BacktestParams, []engineerr.FieldError) {
	var fields []engineerr.FieldError

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		fields = append(fields, engineerr.FieldError{Field: "start", Message: "must be YYYY-MM-DD"})
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		fields = append(fields, engineerr.FieldError{Field: "end", Message: "must be YYYY-MM-DD"})
	}
	if !start.IsZero() && !end.IsZero() {
		if end.Before(start) {
			fields = append(fields, engineerr.FieldError{Field: "end", Message: "must not be before start"})
		}
		if end.Sub(start) > 365*24*time.Hour {
			fields = append(fields, engineerr.FieldError{Field: "end", Message: "range must not exceed 365 days"})
		}
	}

	granularity := req.Granularity
	if granularity == "" {
		granularity = "DAILY"
	}
	if granularity != "DAILY" && granularity != "WEEKLY" {
		fields = append(fields, engineerr.FieldError{Field: "granularity", Message: "must be DAILY or WEEKLY"})
	}

	return orchestrator.BacktestParams{
		Start:          start,
		End:            end,
		Granularity:    granularity,
		MarginRate:     req.MarginRate,
		ASINFilter:     req.ASINFilter,
		CampaignFilter: req.CampaignFilter,
	}, fields
}

func (s *Server) handleBacktestRun(w http.ResponseWriter, r *http.Request) {
	var body backtestRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, engineerr.NewValidationError(engineerr.FieldError{Field: "body", Message: "invalid JSON"}))
		return
	}

	params, fields := body.toParams()
	if len(fields) > 0 {
		writeError(w, engineerr.NewValidationError(fields...))
		return
	}

	result, err := s.orc.RunBacktest(r.Context(), params, orchestrator.RunOptions{DryRun: body.DryRun})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleBacktestWeekly runs a trailing 7-day WEEKLY-granularity backtest
// ending today, the same window the scheduler's weekly job recomputes.
func (s *Server) handleBacktestWeekly(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	params := orchestrator.BacktestParams{
		Start:       now.AddDate(0, 0, -7),
		End:         now,
		Granularity: "WEEKLY",
		MarginRate:  0,
	}

	result, err := s.orc.RunBacktest(r.Context(), params, req.toOptions())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBacktestList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	executions, err := s.backtests.ListExecutions(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": executions, "limit": limit, "offset": offset})
}

func (s *Server) handleBacktestGet(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "id")
	exec, details, err := s.backtests.GetExecution(r.Context(), executionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"execution": exec, "dailyDetails": details})
}

// handleBacktestExport returns the same payload as handleBacktestGet; the
// "/export" suffix is a content-negotiation hook (e.g. CSV) a downstream
// adapter can add without changing this handler's JSON contract.
func (s *Server) handleBacktestExport(w http.ResponseWriter, r *http.Request) {
	s.handleBacktestGet(w, r)
}
