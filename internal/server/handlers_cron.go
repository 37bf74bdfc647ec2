package server

import (
	"net/http"
)

// handleCronBid triggers C5. name is only used in the apply-failure log line;
// the normal and smode schedules run the same orchestrator method (§6
// "/cron/run[-normal|-smode]").
func (s *Server) handleCronBid(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRunRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}

		summary, err := s.orc.RunBidEngine(r.Context(), req.toOptions())
		if err != nil {
			writeError(w, err)
			return
		}

		if !req.DryRun {
			applied, failed, applyErr := s.orc.ApplyApprovedBids(r.Context(), summary.ExecutionID)
			if applyErr != nil {
				s.log.Error().Err(applyErr).Str("job", name).Msg("apply fan-out failed")
			}
			summary.ActionCounts["APPLIED"] = applied
			summary.ActionCounts["APPLY_FAILED"] = failed
		}

		writeJSON(w, http.StatusOK, summaryResponseOf(summary))
	}
}

func (s *Server) handleCronBudget(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.orc.RunBudgetEngine(r.Context(), req.toOptions())
	if err != nil {
		writeError(w, err)
		return
	}

	if !req.DryRun {
		applied, failed, applyErr := s.orc.ApplyApprovedBudgets(r.Context(), summary.ExecutionID)
		if applyErr != nil {
			s.log.Error().Err(applyErr).Msg("budget apply fan-out failed")
		}
		summary.ActionCounts["APPLIED"] = applied
		summary.ActionCounts["APPLY_FAILED"] = failed
	}

	writeJSON(w, http.StatusOK, summaryResponseOf(summary))
}

func (s *Server) handleCronNegative(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.orc.RunNegativeJudger(r.Context(), req.toOptions())
	if err != nil {
		writeError(w, err)
		return
	}

	if !req.DryRun {
		applied, failed, applyErr := s.orc.ApplyApprovedNegatives(r.Context(), summary.ExecutionID)
		if applyErr != nil {
			s.log.Error().Err(applyErr).Msg("negative apply fan-out failed")
		}
		summary.ActionCounts["APPLIED"] = applied
		summary.ActionCounts["APPLY_FAILED"] = failed
	}

	writeJSON(w, http.StatusOK, summaryResponseOf(summary))
}
