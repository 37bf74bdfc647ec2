package bid

import (
	"math"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

// BidResult is C4's output: the computed change rate, the new bid, and
// whether either clip bound engaged.
type BidResult struct {
	ChangeRate   float64
	NewBid       int64
	Clipped      bool
	ClipReason   string
}

// computeBid runs C4: change_rate = base_rate(score_rank, action) * product
// of coefficients, clipped to the config bounds and to the guardrail's
// down-step ceiling, then applied to current_bid and floored at min_bid.
func computeBid(m domain.KeywordMetrics, action domain.BidAction, coeffs Coefficients, g Guardrails, cfg EngineConfig) BidResult {
	base := baseRate(action, cfg)
	rankFactor := scoreRankFactor(m.ScoreRank)
	changeRate := base * rankFactor * coeffs.Product()

	clipped := false
	reason := ""

	if changeRate > cfg.MaxBidIncreaseRate {
		changeRate = cfg.MaxBidIncreaseRate
		clipped = true
		reason = "max_increase_rate"
	}
	if changeRate < cfg.MaxBidDecreaseRate {
		changeRate = cfg.MaxBidDecreaseRate
		clipped = true
		reason = "max_decrease_rate"
	}

	if changeRate < 0 && -changeRate > g.MaxDownStepRatio {
		changeRate = -g.MaxDownStepRatio
		clipped = true
		reason = "guardrail_max_down_step"
	}

	newBidFloat := float64(m.CurrentBid) * (1 + changeRate)
	newBid := int64(math.Round(newBidFloat))
	if newBid < cfg.MinBidMinorUnits {
		newBid = cfg.MinBidMinorUnits
		clipped = true
		reason = "min_bid_floor"
	}

	return BidResult{
		ChangeRate: changeRate,
		NewBid:     newBid,
		Clipped:    clipped,
		ClipReason: reason,
	}
}

func baseRate(action domain.BidAction, cfg EngineConfig) float64 {
	if v, ok := cfg.BaseRateByAction[string(action)]; ok {
		return v
	}
	return 0
}

// scoreRankFactor gives higher-priority keywords (lower ScoreRank) a touch
// more room to move; it is a mild multiplier, never a deciding factor on its
// own.
func scoreRankFactor(scoreRank int) float64 {
	switch {
	case scoreRank <= 0:
		return 1.0
	case scoreRank <= 10:
		return 1.1
	case scoreRank <= 50:
		return 1.0
	default:
		return 0.95
	}
}
