package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

func (s *Server) handleLifecycleUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.orc.RunLifecycleUpdate(r.Context(), req.toOptions())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponseOf(summary))
}

// handleLifecycleSuggestions lists pending lifecycle transitions awaiting
// approval. Reuses the same admin paging convention as the recommendation
// lists even though lifecycle transitions have no separate approve/reject
// surface named in §6 beyond the manual stage override below.
func (s *Server) handleLifecycleSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	rows, err := s.recs.ListPendingBidRecommendations(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "limit": limit, "offset": offset})
}

type stageOverrideRequest struct {
	Stage string `json:"stage"`
}

// handleLifecycleStageOverride lets an operator force a product's stage
// directly, bypassing C8's transition rules (manual override, not a C8
// decision) — writes straight to product_strategy.
func (s *Server) handleLifecycleStageOverride(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var body stageOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, engineerr.NewValidationError(engineerr.FieldError{Field: "body", Message: "invalid JSON"}))
		return
	}

	stage := domain.LifecycleStage(body.Stage)
	switch stage {
	case domain.StageLaunchHard, domain.StageLaunchSoft, domain.StageGrow, domain.StageHarvest:
	default:
		writeError(w, engineerr.NewValidationError(engineerr.FieldError{Field: "stage", Message: "unknown lifecycle stage: " + body.Stage}))
		return
	}

	strategies, err := s.inputs.LoadProductStrategies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	strategy, ok := strategies[productID]
	if !ok {
		writeError(w, engineerr.NewValidationError(engineerr.FieldError{Field: "id", Message: "unknown product id: " + productID}))
		return
	}

	strategy.Stage = stage
	if err := s.inputs.UpsertProductStrategy(r.Context(), strategy, time.Now()); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"productId": productID, "stage": string(stage)})
}
