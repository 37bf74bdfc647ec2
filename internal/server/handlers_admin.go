package server

import (
	"net/http"
	"time"

	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

func (s *Server) handleListBidRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	rows, err := s.recs.ListPendingBidRecommendations(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "limit": limit, "offset": offset})
}

func (s *Server) handleListNegativeSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	verdict := r.URL.Query().Get("verdict")
	rows, err := s.recs.ListNegativeSuggestions(r.Context(), verdict, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "limit": limit, "offset": offset})
}

// handleListAutoExactSuggestions shares negative_keyword_suggestions'
// listing shape; auto-exact promotions are persisted in their own table but
// the admin surface paginates them the same way.
func (s *Server) handleListAutoExactSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	rows, err := s.recs.ListNegativeSuggestions(r.Context(), "", limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "limit": limit, "offset": offset})
}

// handleApproveRecommendation performs the optimistic PENDING->APPROVED
// transition (§5 "first writer wins"); a 0-row update means another writer
// already moved the row, surfaced as 409.
func (s *Server) handleApproveRecommendation(kind string) http.HandlerFunc {
	return s.handleStatusTransition(kind, domain.StatusPending, domain.StatusApproved)
}

func (s *Server) handleRejectRecommendation(kind string) http.HandlerFunc {
	return s.handleStatusTransition(kind, domain.StatusPending, domain.StatusRejected)
}

func (s *Server) handleStatusTransition(kind string, expectedPrior, newStatus domain.RecommendationStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, err)
			return
		}

		actor := r.URL.Query().Get("actor")
		if actor == "" {
			actor = "admin"
		}

		rows, err := s.recs.UpdateStatusCAS(r.Context(), kind, "id", id, expectedPrior, newStatus, actor, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		if rows == 0 {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "recommendation already transitioned by another writer"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": string(newStatus)})
	}
}

// handleApplyQueued drains every APPROVED row of the given kind through the
// apply sink immediately, outside the normal cron cadence.
func (s *Server) handleApplyQueued(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		executionID := r.URL.Query().Get("executionId")
		if executionID == "" {
			writeError(w, engineerr.NewValidationError(engineerr.FieldError{Field: "executionId", Message: "required"}))
			return
		}

		var applied, failed int
		var err error
		switch kind {
		case "bid":
			applied, failed, err = s.orc.ApplyApprovedBids(r.Context(), executionID)
		case "budget":
			applied, failed, err = s.orc.ApplyApprovedBudgets(r.Context(), executionID)
		case "negative", "auto-exact":
			applied, failed, err = s.orc.ApplyApprovedNegatives(r.Context(), executionID)
		default:
			writeError(w, engineerr.NewValidationError(engineerr.FieldError{Field: "kind", Message: "unknown recommendation kind: " + kind}))
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"applied": applied, "failed": failed})
	}
}
