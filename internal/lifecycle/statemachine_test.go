package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

func baseStrategy() domain.ProductStrategy {
	return domain.ProductStrategy{
		ProductID:               "asin-1",
		Stage:                   domain.StageLaunchHard,
		SustainableTACOS:        0.15,
		InvestTACOSCap:          0.30,
		InvestMonthlyLossCapJPY: 500000,
		InvestWindowBaseMonths:  6,
		LaunchDate:              time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ReviewRating:            4.2,
		ReviewCount:             50,
		ReinvestAllowed:         true,
	}
}

func profitAt(month time.Time, netMonthly, netCumulative, tacos float64) domain.MonthlyProfit {
	return domain.MonthlyProfit{Month: month, NetProfitMonthly: netMonthly, NetProfitCumulative: netCumulative, TACOS: tacos}
}

// Global safety override (§4.8 property 7: "safety precedence") always wins
// over the per-stage table and the launch-exit decision, forcing HARVEST.
func TestEvaluate_GlobalSafetyOverridesEverything(t *testing.T) {
	strategy := baseStrategy()
	strategy.ReviewRating = 2.0 // below MinReviewRating with sufficient volume

	in := Input{
		Strategy: strategy,
		RecentProfits: []domain.MonthlyProfit{
			profitAt(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 1000, 1000, 0.1),
		},
		Seo: domain.SeoScore{Month: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Trend: domain.TrendUp},
		LaunchExit: &domain.LaunchExitDecision{
			ShouldExit:       true,
			RecommendedStage: domain.StageGrow, // would normally win, but safety must override
		},
	}

	rec := Evaluate(in, DefaultConfig())
	assert.True(t, rec.ForceHarvest)
	assert.Equal(t, domain.StageHarvest, rec.RecommendedStage)
	assert.True(t, rec.ShouldTransition)
}

// Consecutive loss months exceeding the cap also force HARVEST via the
// global safety axis, independent of review rating.
func TestEvaluate_ConsecutiveLossMonthsForcesHarvest(t *testing.T) {
	strategy := baseStrategy()
	cfg := DefaultConfig()

	var profits []domain.MonthlyProfit
	month := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < cfg.Safety.ConsecutiveLossMonths; i++ {
		profits = append(profits, profitAt(month.AddDate(0, i, 0), -600000, -600000*float64(i+1), 0.2))
	}

	in := Input{Strategy: strategy, RecentProfits: profits, Seo: domain.SeoScore{Month: month}}

	rec := Evaluate(in, cfg)
	assert.True(t, rec.ForceHarvest)
	assert.Equal(t, domain.StageHarvest, rec.RecommendedStage)
}

// A present, firing LaunchExitDecision overrides the per-stage table's
// recommendation while the product remains in a LAUNCH_* stage.
func TestEvaluate_LaunchExitDecisionOverridesStageTable(t *testing.T) {
	strategy := baseStrategy()
	strategy.Stage = domain.StageLaunchHard

	in := Input{
		Strategy:      strategy,
		RecentProfits: []domain.MonthlyProfit{profitAt(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 1000, 1000, 0.1)},
		Seo:           domain.SeoScore{Month: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Trend: domain.TrendUp},
		LaunchExit: &domain.LaunchExitDecision{
			ShouldExit:       true,
			IsEmergencyExit:  true,
			RecommendedStage: domain.StageGrow,
			ReasonCode:       domain.ReasonEmergencyRatioStage,
			ReasonDetail:     "test emergency",
		},
	}

	rec := Evaluate(in, DefaultConfig())
	assert.True(t, rec.IsEmergencyExit)
	assert.Equal(t, domain.StageGrow, rec.RecommendedStage)
	assert.True(t, rec.ShouldTransition)
}

// LaunchExit is ignored once the product is out of a LAUNCH_* stage, even if
// the caller mistakenly still supplies one.
func TestEvaluate_LaunchExitIgnoredOutsideLaunchStages(t *testing.T) {
	strategy := baseStrategy()
	strategy.Stage = domain.StageGrow

	in := Input{
		Strategy:      strategy,
		RecentProfits: []domain.MonthlyProfit{profitAt(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 1000, 1000, 0.1)},
		Seo:           domain.SeoScore{Month: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Trend: domain.TrendFlat},
		LaunchExit: &domain.LaunchExitDecision{
			ShouldExit:       true,
			RecommendedStage: domain.StageHarvest,
		},
	}

	rec := Evaluate(in, DefaultConfig())
	assert.Equal(t, domain.StageGrow, rec.RecommendedStage)
}

// LAUNCH_HARD -> LAUNCH_SOFT when TACOS exceeds the invest cap.
func TestEvaluate_LaunchHardDemotesOnTacosExceeded(t *testing.T) {
	strategy := baseStrategy()
	in := Input{
		Strategy:      strategy,
		RecentProfits: []domain.MonthlyProfit{profitAt(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), -100, -100, 0.5)},
		Seo:           domain.SeoScore{Month: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Trend: domain.TrendUp},
	}

	rec := Evaluate(in, DefaultConfig())
	assert.Equal(t, domain.StageLaunchSoft, rec.RecommendedStage)
}

// evaluateExtension grants exactly one month when SEO/loss/TACOS are all
// within tolerance, and never exceeds MaxDynamicMonths.
func TestEvaluateExtension_GrantsOneMonthWithinTolerance(t *testing.T) {
	strategy := baseStrategy()
	in := Input{
		Strategy:      strategy,
		RecentProfits: []domain.MonthlyProfit{profitAt(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 1000, 1000, 0.1)},
		Seo:           domain.SeoScore{Month: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Trend: domain.TrendUp},
	}

	months := evaluateExtension(in, DefaultConfig().Extension)
	assert.Equal(t, 1, months)
}

func TestEvaluateExtension_CapsAtMaxDynamicMonths(t *testing.T) {
	strategy := baseStrategy()
	strategy.InvestWindowDynamicMonths = DefaultConfig().Extension.MaxDynamicMonths

	in := Input{
		Strategy:      strategy,
		RecentProfits: []domain.MonthlyProfit{profitAt(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 1000, 1000, 0.1)},
		Seo:           domain.SeoScore{Month: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Trend: domain.TrendUp},
	}

	months := evaluateExtension(in, DefaultConfig().Extension)
	assert.Equal(t, 0, months)
}
