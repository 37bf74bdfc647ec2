// Package budget implements the campaign budget engine (C9): a pure,
// per-campaign BOOST/KEEP/CURB classifier over rolling spend and
// impression-share signals.
package budget

// Config holds C9's tunables.
type Config struct {
	MinOrdersForDecision int64

	BoostUsageThreshold  float64
	BoostLostISThreshold float64
	BoostAcosRatio       float64
	BoostPercent         float64
	GlobalMaxBudgetCap   int64
	MaxBudgetMultiplier  float64

	CurbLowUsageDays int
	CurbAcosRatio    float64
	CurbPercent      float64
	MinBudget        int64
}

// DefaultConfig returns the calibration pinned by spec.md §4.9.
func DefaultConfig() Config {
	return Config{
		MinOrdersForDecision: 5,

		BoostUsageThreshold:  90.0, // BudgetUsagePercent and LostImpressionShareBudget are both 0-100 scales
		BoostLostISThreshold: 10.0,
		BoostAcosRatio:       0.9,
		BoostPercent:         20,
		GlobalMaxBudgetCap:   500000_00,
		MaxBudgetMultiplier:  3.0,

		CurbLowUsageDays: 5,
		CurbAcosRatio:    1.3,
		CurbPercent:      15,
		MinBudget:        1000_00,
	}
}
