package seo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

func baseLaunchExitInput() LaunchExitInput {
	return LaunchExitInput{
		LossBudget: domain.LossBudgetSummary{
			ProductID:  "asin-1",
			State:      domain.InvestSafe,
			RatioStage: 0.3,
		},
		Progress:         domain.AsinSeoLaunchProgress{ProductID: "asin-1", AchievedCount: 2, ActiveCount: 8},
		DaysSinceLaunch:  30,
		AsinClicksTotal:  500,
		AsinOrdersTotal:  10,
		AvgDailySales30d: 10,
	}
}

// S5: loss budget SAFE, trial thresholds unmet -> no exit, reason
// LOSS_BUDGET_OK.
func TestDecideLaunchExit_S5_ContinueWithLossBudgetOK(t *testing.T) {
	in := baseLaunchExitInput()
	decision := DecideLaunchExit(in, DefaultLaunchExitConfig())

	assert.False(t, decision.ShouldExit)
	assert.Equal(t, domain.ReasonLossBudgetOK, decision.ReasonCode)
}

// S6: ratioStage=1.5 exceeds the emergency threshold of 1.2 -> emergency
// exit to GROW with the ratio-stage reason code.
func TestDecideLaunchExit_S6_EmergencyRatioStageExit(t *testing.T) {
	in := baseLaunchExitInput()
	in.LossBudget.RatioStage = 1.5

	decision := DecideLaunchExit(in, DefaultLaunchExitConfig())

	assert.True(t, decision.ShouldExit)
	assert.True(t, decision.IsEmergencyExit)
	assert.Equal(t, domain.StageGrow, decision.RecommendedStage)
	assert.Equal(t, domain.ReasonEmergencyRatioStage, decision.ReasonCode)
}

// Loss-budget BREACH always wins the emergency axis over ratio stage, even
// when ratio stage alone would not have crossed the threshold.
func TestDecideLaunchExit_EmergencyBreachTakesPriority(t *testing.T) {
	in := baseLaunchExitInput()
	in.LossBudget.State = domain.InvestBreach
	in.LossBudget.RatioStage = 0.1

	decision := DecideLaunchExit(in, DefaultLaunchExitConfig())

	assert.True(t, decision.ShouldExit)
	assert.True(t, decision.IsEmergencyExit)
	assert.Equal(t, domain.ReasonEmergencyLossBudgetBreach, decision.ReasonCode)
}

// Normal completion: both core-completion and trial thresholds satisfied,
// loss budget not in an emergency state -> exit to GROW via normal
// completion, not an early/emergency exit.
func TestDecideLaunchExit_NormalCompletionExit(t *testing.T) {
	in := baseLaunchExitInput()
	in.Progress = domain.AsinSeoLaunchProgress{ProductID: "asin-1", AchievedCount: 7, GaveUpCount: 1, ActiveCount: 2}
	in.DaysSinceLaunch = 90

	decision := DecideLaunchExit(in, DefaultLaunchExitConfig())

	assert.True(t, decision.ShouldExit)
	assert.False(t, decision.IsEmergencyExit)
	assert.False(t, decision.IsEarlyExit)
	assert.Equal(t, domain.ReasonNormalCompletion, decision.ReasonCode)
	assert.Equal(t, domain.StageGrow, decision.RecommendedStage)
}

// Early exit: loss budget in WARNING with partial (but sub-full) SEO
// completion triggers the early-warning partial exit path.
func TestDecideLaunchExit_EarlyWarningPartialExit(t *testing.T) {
	in := baseLaunchExitInput()
	in.LossBudget.State = domain.InvestWarning
	in.Progress = domain.AsinSeoLaunchProgress{ProductID: "asin-1", AchievedCount: 4, GaveUpCount: 1, ActiveCount: 5}
	in.DaysSinceLaunch = 10 // trial condition unmet so normal completion doesn't fire first

	decision := DecideLaunchExit(in, DefaultLaunchExitConfig())

	assert.True(t, decision.ShouldExit)
	assert.True(t, decision.IsEarlyExit)
	assert.Equal(t, domain.ReasonEarlyWarningPartial, decision.ReasonCode)
}

// Volume scale clamps to the configured [min,max] band regardless of how
// extreme AvgDailySales30d is.
func TestDecideLaunchExit_VolumeScaleClamped(t *testing.T) {
	cfg := DefaultLaunchExitConfig()

	high := baseLaunchExitInput()
	high.AvgDailySales30d = 1000
	decisionHigh := DecideLaunchExit(high, cfg)
	assert.Equal(t, cfg.MaxVolumeScale, decisionHigh.EffectiveVolumeScale)

	low := baseLaunchExitInput()
	low.AvgDailySales30d = 0
	decisionLow := DecideLaunchExit(low, cfg)
	assert.Equal(t, cfg.MinVolumeScale, decisionLow.EffectiveVolumeScale)
}
