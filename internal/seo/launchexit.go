package seo

import "github.com/mbicorp/adbid-engine/internal/domain"

// LaunchExitInput is everything C7 needs for one ASIN currently in a
// LAUNCH_* stage.
type LaunchExitInput struct {
	LossBudget          domain.LossBudgetSummary
	Progress            domain.AsinSeoLaunchProgress
	DaysSinceLaunch     int
	AsinClicksTotal     int64
	AsinOrdersTotal     int64
	AvgDailySales30d    float64
	LaunchInvestUsageRatio float64
}

// DecideLaunchExit runs C7's two-priority decision tree and returns the
// shared LaunchExitDecision type that internal/lifecycle's state machine
// (C8) consumes without either package importing the other.
func DecideLaunchExit(in LaunchExitInput, cfg LaunchExitConfig) domain.LaunchExitDecision {
	volumeScale := clamp(in.AvgDailySales30d/safeRef(cfg.RefDailySales), cfg.MinVolumeScale, cfg.MaxVolumeScale)
	clickThreshold := float64(cfg.MinASINClicksTotal) * volumeScale
	orderThreshold := float64(cfg.MinASINOrdersTotal) * volumeScale

	decision := domain.LaunchExitDecision{
		RecommendedStage:       domain.StageLaunchHard, // overwritten below when exiting
		EffectiveVolumeScale:    volumeScale,
		EffectiveClickThreshold: clickThreshold,
		EffectiveOrderThreshold: orderThreshold,
	}

	if isEmergency(in, cfg) {
		decision.ShouldExit = true
		decision.IsEmergencyExit = true
		decision.RecommendedStage = domain.StageGrow
		decision.ReasonCode = emergencyReason(in, cfg)
		decision.ReasonDetail = "emergency loss-budget axis triggered"
		return decision
	}

	completionRatio := in.Progress.CompletionRatio()
	trialConditionHolds := float64(in.DaysSinceLaunch) >= float64(cfg.MinLaunchDays) ||
		float64(in.AsinClicksTotal) >= clickThreshold ||
		float64(in.AsinOrdersTotal) >= orderThreshold

	if completionRatio >= cfg.MinCoreCompletionRatio && trialConditionHolds {
		decision.ShouldExit = true
		decision.RecommendedStage = domain.StageGrow
		decision.ReasonCode = domain.ReasonNormalCompletion
		decision.ReasonDetail = "core completion and trial thresholds both satisfied"
		return decision
	}

	if in.LossBudget.State == domain.InvestWarning && completionRatio >= cfg.SeoCompletionWarningThreshold {
		decision.ShouldExit = true
		decision.IsEarlyExit = true
		decision.RecommendedStage = domain.StageGrow
		decision.ReasonCode = domain.ReasonEarlyWarningPartial
		decision.ReasonDetail = "loss-budget in WARNING with partial SEO completion"
		return decision
	}

	decision.ShouldExit = false
	if in.LossBudget.State == domain.InvestSafe {
		decision.ReasonCode = domain.ReasonLossBudgetOK
		decision.ReasonDetail = "no exit condition satisfied, loss budget comfortably within bounds"
	} else {
		decision.ReasonCode = domain.ReasonContinueLaunch
		decision.ReasonDetail = "no exit condition satisfied"
	}
	return decision
}

func isEmergency(in LaunchExitInput, cfg LaunchExitConfig) bool {
	return in.LossBudget.State == domain.InvestBreach ||
		in.LossBudget.RatioStage > cfg.EmergencyLossRatioThreshold ||
		in.LaunchInvestUsageRatio >= cfg.LaunchInvestCriticalThreshold
}

func emergencyReason(in LaunchExitInput, cfg LaunchExitConfig) domain.LaunchExitReasonCode {
	switch {
	case in.LossBudget.State == domain.InvestBreach:
		return domain.ReasonEmergencyLossBudgetBreach
	case in.LossBudget.RatioStage > cfg.EmergencyLossRatioThreshold:
		return domain.ReasonEmergencyRatioStage
	default:
		return domain.ReasonEmergencyInvestCritical
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func safeRef(ref float64) float64 {
	if ref <= 0 {
		return 1
	}
	return ref
}
