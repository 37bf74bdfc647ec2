package domain

import "time"

// SeoScore is a product×month SEO summary, input to C8's investment-window
// extension rule and per-stage transition table.
type SeoScore struct {
	ProductID string
	Month     time.Time

	OverallScore float64 // 0-100
	Trend        SeoTrend
	RankZone     RankZone

	RoleSubScores map[KeywordRole]float64

	RankMedian  float64
	RankBestPct float64 // fraction of tracked keywords at/above their target band
}

// IsHigh reports whether the SEO score qualifies for the "HIGH" tier used by
// C8's per-stage transition table (spec.md §4.8 uses "SEO=HIGH" informally;
// the rewrite pins the threshold here so every caller agrees).
func (s SeoScore) IsHigh(threshold float64) bool {
	return s.OverallScore >= threshold
}

// CoreKeywordConfig is a per-keyword SEO-push configuration, input to C6.
type CoreKeywordConfig struct {
	KeywordID     string
	ProductID     string
	Tier          KeywordTier
	TargetRankMin int
	TargetRankMax int
	SearchVolume  int64
	Role          KeywordRole
}

// KeywordRankSummary is an aggregated rank/performance series for one
// keyword over the evaluation window, input to C6.
type KeywordRankSummary struct {
	KeywordID string
	ProductID string

	CurrentRank *int // nil = out of range
	BestRank    *int // nil = never ranked in window

	DaysWithRankData int
	ImpressionsTotal int64
	ClicksTotal      int64
	OrdersTotal      int64
	CostTotal        float64
	RevenueTotal     float64
}

// CVR returns OrdersTotal/ClicksTotal, or 0 when there are no clicks.
func (k KeywordRankSummary) CVR() float64 {
	if k.ClicksTotal == 0 {
		return 0
	}
	return float64(k.OrdersTotal) / float64(k.ClicksTotal)
}

// ACOS returns CostTotal/RevenueTotal, or a large sentinel when there is no
// revenue to divide by (treated as "infinitely bad" by callers).
func (k KeywordRankSummary) ACOS() float64 {
	if k.RevenueTotal <= 0 {
		if k.CostTotal <= 0 {
			return 0
		}
		return 1e9
	}
	return k.CostTotal / k.RevenueTotal
}

// AsinSeoLaunchProgress is the per-product rollup of C6's per-keyword
// classifications (§3 invariant: Achieved+GaveUp+Active == Total).
type AsinSeoLaunchProgress struct {
	ProductID string

	AchievedCount int
	GaveUpCount   int
	ActiveCount   int
}

// Total is the total number of CORE keywords classified for this product.
func (a AsinSeoLaunchProgress) Total() int {
	return a.AchievedCount + a.GaveUpCount + a.ActiveCount
}

// CompletionRatio is (Achieved+GaveUp)/Total, or 0 when there are no core
// keywords to evaluate.
func (a AsinSeoLaunchProgress) CompletionRatio() float64 {
	total := a.Total()
	if total == 0 {
		return 0
	}
	return float64(a.AchievedCount+a.GaveUpCount) / float64(total)
}

// SuccessRatio is Achieved/Total, or 0 when there are no core keywords.
func (a AsinSeoLaunchProgress) SuccessRatio() float64 {
	total := a.Total()
	if total == 0 {
		return 0
	}
	return float64(a.AchievedCount) / float64(total)
}

// LossBudgetSummary is a product's cumulative-loss consumption state, input
// to C7's emergency axis and C8's global safety checks.
type LossBudgetSummary struct {
	ProductID string

	State InvestmentState

	RollingConsumptionRatio         float64
	LaunchCumulativeConsumptionRatio float64
	LaunchInvestWindowUsageRatio    float64

	WarningThreshold  float64
	CriticalThreshold float64

	// RatioStage is the worst of the three consumption ratios, normalized
	// against CriticalThreshold so that 1.0 == "at the critical line". C7's
	// emergency axis compares this to emergencyLossRatioThreshold.
	RatioStage float64
}
