package budget

import (
	"math"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

const (
	reasonInsufficientData  = "INSUFFICIENT_DATA"
	reasonMaxBudgetReached  = "MAX_BUDGET_REACHED"
	reasonMinBudgetReached  = "MIN_BUDGET_REACHED"
	reasonModeratePerf      = "MODERATE_PERFORMANCE"
	reasonBudgetAvailable   = "BUDGET_AVAILABLE"
)

// Evaluate runs C9 for one campaign.
func Evaluate(executionID string, m domain.BudgetMetrics, cfg Config) domain.BudgetRecommendation {
	rec := domain.BudgetRecommendation{
		RecordBase: domain.RecordBase{
			ExecutionID: executionID,
			EntityID:    m.CampaignID,
			Status:      domain.StatusPending,
		},
		CampaignID:        m.CampaignID,
		InputSnapshot:      m,
		Action:            domain.BudgetKeep,
		CurrentBudget:     m.DailyBudget,
		RecommendedBudget: m.DailyBudget,
	}

	if m.Orders7d < cfg.MinOrdersForDecision {
		rec.ReasonCode = reasonInsufficientData
		return rec
	}

	if ok, lostISDriven := shouldBoost(m, cfg); ok {
		newBudget := int64(math.Round(float64(m.DailyBudget) * (1 + cfg.BoostPercent/100)))
		cap := maxBudgetCap(m.DailyBudget, cfg)
		if newBudget > cap {
			newBudget = cap
		}
		if newBudget <= m.DailyBudget {
			rec.Action = domain.BudgetKeep
			rec.ReasonCode = reasonMaxBudgetReached
			return rec
		}
		rec.Action = domain.BudgetBoost
		rec.RecommendedBudget = newBudget
		rec.Clipped = newBudget == cap
		if rec.Clipped {
			rec.ClipReason = "global_or_multiplier_cap"
		}
		if lostISDriven {
			rec.ReasonCode = "HIGH_PERFORMANCE_LOST_IS"
		} else {
			rec.ReasonCode = "HIGH_PERFORMANCE_USAGE"
		}
		return rec
	}

	if shouldCurb(m, cfg) {
		newBudget := int64(math.Round(float64(m.DailyBudget) * (1 - cfg.CurbPercent/100)))
		if newBudget < cfg.MinBudget {
			newBudget = cfg.MinBudget
		}
		if newBudget >= m.DailyBudget {
			rec.Action = domain.BudgetKeep
			rec.ReasonCode = reasonMinBudgetReached
			return rec
		}
		rec.Action = domain.BudgetCurb
		rec.RecommendedBudget = newBudget
		rec.Clipped = newBudget == cfg.MinBudget
		if rec.Clipped {
			rec.ClipReason = "min_budget_floor"
		}
		rec.ReasonCode = "CURB_CONDITIONS_MET"
		return rec
	}

	if m.BudgetUsagePercent < cfg.BoostUsageThreshold {
		rec.ReasonCode = reasonBudgetAvailable
	} else {
		rec.ReasonCode = reasonModeratePerf
	}
	return rec
}

// shouldBoost reports whether C9's BOOST condition fires and, if so,
// whether a high lost-impression-share reading was the triggering signal
// (vs. plain budget-usage pressure) so the caller can pick the matching
// reason code.
func shouldBoost(m domain.BudgetMetrics, cfg Config) (fire bool, lostISDriven bool) {
	usageHigh := m.BudgetUsagePercent > cfg.BoostUsageThreshold
	lostISHigh := m.LostImpressionShareBudget != nil && *m.LostImpressionShareBudget > cfg.BoostLostISThreshold
	if !(usageHigh || lostISHigh) || m.ACOSRatio() >= cfg.BoostAcosRatio {
		return false, false
	}
	return true, lostISHigh
}

func shouldCurb(m domain.BudgetMetrics, cfg Config) bool {
	return m.ConsecutiveLowUsageDays >= cfg.CurbLowUsageDays && m.ACOSRatio() > cfg.CurbAcosRatio
}

func maxBudgetCap(current int64, cfg Config) int64 {
	byMultiplier := int64(float64(current) * cfg.MaxBudgetMultiplier)
	if byMultiplier < cfg.GlobalMaxBudgetCap {
		return byMultiplier
	}
	return cfg.GlobalMaxBudgetCap
}
