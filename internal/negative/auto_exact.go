package negative

import "github.com/mbicorp/adbid-engine/internal/domain"

// EvaluatePromotion is C10's companion rule: a search term with at least
// MinClicksForPromotion clicks and MinConversions conversions, and an ACOS
// at or under MaxACOSForPromotion, is promoted to its own exact-match keyword rather
// than left to ride the broad/phrase match it was discovered under.
//
// It is only ever evaluated for clusters that Judge did NOT flag
// STOP_AND_NEG; a query earning a negative verdict is never promoted.
func EvaluatePromotion(m ClusterMetrics, searchTerm, sourceKeywordID string, cfg AutoExactConfig) *domain.AutoExactPromotionSuggestion {
	if m.Clicks < cfg.MinClicksForPromotion || m.Conversions < cfg.MinConversions {
		return nil
	}
	if m.ACOS > cfg.MaxACOSForPromotion {
		return nil
	}

	return &domain.AutoExactPromotionSuggestion{
		RecordBase: domain.RecordBase{
			EntityID:     searchTerm,
			Status:       domain.StatusPending,
			ReasonCode:   "PROMOTION_THRESHOLDS_MET",
			ReasonDetail: "clicks/conversions/acos all cleared the promotion bar",
		},
		ProductID:       m.ProductID,
		SearchTerm:      searchTerm,
		SourceKeywordID: sourceKeywordID,
		Clicks:          m.Clicks,
		Conversions:     m.Conversions,
		ACOS:            m.ACOS,
	}
}
