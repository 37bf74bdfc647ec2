package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func baseCampaign() domain.BudgetMetrics {
	return domain.BudgetMetrics{
		CampaignID:  "camp-1",
		DailyBudget: 10000_00,
		TodaySpend:  9000_00,

		Orders7d:   20,
		ACOS7d:     0.20,
		TargetACOS: 0.25,

		ConsecutiveLowUsageDays: 0,
	}
}

// S4: budgetUsagePercent=95 and lostImpressionShareBudget=15 both exceed
// threshold, but lost-IS is the signal the reason code must surface.
func TestEvaluate_S4_HighPerformanceLostIS(t *testing.T) {
	m := baseCampaign()
	m.BudgetUsagePercent = 95
	m.LostImpressionShareBudget = floatPtr(15)

	rec := Evaluate("exec-1", m, DefaultConfig())

	assert.Equal(t, domain.BudgetBoost, rec.Action)
	assert.Equal(t, "HIGH_PERFORMANCE_LOST_IS", rec.ReasonCode)
	assert.Greater(t, rec.RecommendedBudget, rec.CurrentBudget)
}

// When only usage is high (lost-IS unavailable), the reason code reflects
// plain usage pressure.
func TestEvaluate_BoostByUsageOnly(t *testing.T) {
	m := baseCampaign()
	m.BudgetUsagePercent = 95
	m.LostImpressionShareBudget = nil

	rec := Evaluate("exec-2", m, DefaultConfig())

	assert.Equal(t, domain.BudgetBoost, rec.Action)
	assert.Equal(t, "HIGH_PERFORMANCE_USAGE", rec.ReasonCode)
}

// Boost never fires when ACOS ratio is already at or above the cap, even
// with high usage.
func TestEvaluate_NoBoostWhenAcosRatioTooHigh(t *testing.T) {
	m := baseCampaign()
	m.BudgetUsagePercent = 95
	m.ACOS7d = 0.30
	m.TargetACOS = 0.25 // ratio 1.2 > BoostAcosRatio(0.9)

	rec := Evaluate("exec-3", m, DefaultConfig())
	assert.NotEqual(t, domain.BudgetBoost, rec.Action)
}

// Too little order data yields INSUFFICIENT_DATA and a KEEP action,
// regardless of other signals.
func TestEvaluate_InsufficientData(t *testing.T) {
	m := baseCampaign()
	m.Orders7d = 1
	m.BudgetUsagePercent = 99

	rec := Evaluate("exec-4", m, DefaultConfig())
	assert.Equal(t, domain.BudgetKeep, rec.Action)
	assert.Equal(t, reasonInsufficientData, rec.ReasonCode)
}

// Curb fires when usage has been low for long enough and ACOS is running
// well over target, floored at MinBudget.
func TestEvaluate_CurbFloorsAtMinBudget(t *testing.T) {
	cfg := DefaultConfig()
	m := baseCampaign()
	m.DailyBudget = cfg.MinBudget + 1
	m.ConsecutiveLowUsageDays = cfg.CurbLowUsageDays
	m.ACOS7d = 1.0
	m.TargetACOS = 0.25 // ratio 4.0 > CurbAcosRatio(1.3)

	rec := Evaluate("exec-5", m, cfg)
	assert.Equal(t, domain.BudgetCurb, rec.Action)
	assert.Equal(t, cfg.MinBudget, rec.RecommendedBudget)
	assert.True(t, rec.Clipped)
}

// Monotonicity property (§8 item 4): holding all else fixed, a higher
// BudgetUsagePercent never moves the recommended budget down relative to a
// lower usage reading.
func TestEvaluate_MonotonicityInUsage(t *testing.T) {
	cfg := DefaultConfig()
	low := baseCampaign()
	low.BudgetUsagePercent = 50

	high := baseCampaign()
	high.BudgetUsagePercent = 95

	recLow := Evaluate("exec-6", low, cfg)
	recHigh := Evaluate("exec-7", high, cfg)

	assert.GreaterOrEqual(t, recHigh.RecommendedBudget, recLow.RecommendedBudget)
}

// Recommended budget is never clipped below the configured global min, even
// after aggressive curbing.
func TestEvaluate_RecommendedBudgetNeverBelowMinBudget(t *testing.T) {
	cfg := DefaultConfig()
	m := baseCampaign()
	m.DailyBudget = cfg.MinBudget
	m.ConsecutiveLowUsageDays = cfg.CurbLowUsageDays
	m.ACOS7d = 2.0
	m.TargetACOS = 0.25

	rec := Evaluate("exec-8", m, cfg)
	assert.GreaterOrEqual(t, rec.RecommendedBudget, cfg.MinBudget)
}
