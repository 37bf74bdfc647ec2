package lifecycle

import "github.com/mbicorp/adbid-engine/internal/domain"

// Input is everything C8 needs for one product evaluation. RecentProfits
// must be ordered oldest-first; the last element is the most recent month.
// LaunchExit is nil unless Strategy.Stage is currently LAUNCH_HARD or
// LAUNCH_SOFT.
type Input struct {
	Strategy      domain.ProductStrategy
	RecentProfits []domain.MonthlyProfit
	Seo           domain.SeoScore
	LaunchExit    *domain.LaunchExitDecision
}

// Evaluate runs C8: global safety overrides, then investment-window
// extension, then the per-stage transition table, with a present
// LaunchExitDecision overriding the per-stage recommendation while the
// product remains in a LAUNCH_* stage.
func Evaluate(in Input, cfg Config) domain.LifecycleTransitionRecord {
	rec := domain.LifecycleTransitionRecord{
		ProductID:    in.Strategy.ProductID,
		CurrentStage: in.Strategy.Stage,
	}

	if forceHarvest, warnings := checkGlobalSafety(in, cfg.Safety); forceHarvest {
		rec.ForceHarvest = true
		rec.RecommendedStage = domain.StageHarvest
		rec.ShouldTransition = in.Strategy.Stage != domain.StageHarvest
		rec.Warnings = warnings
		return rec
	}

	if in.Strategy.Stage.IsLaunch() {
		rec.ExtensionMonthsGranted = evaluateExtension(in, cfg.Extension)
	}

	rec.RecommendedStage, rec.Warnings = nextStage(in, cfg.Stage)
	rec.ShouldTransition = rec.RecommendedStage != in.Strategy.Stage

	if in.Strategy.Stage.IsLaunch() && in.LaunchExit != nil && in.LaunchExit.ShouldExit {
		rec.RecommendedStage = in.LaunchExit.RecommendedStage
		rec.ShouldTransition = rec.RecommendedStage != in.Strategy.Stage
		rec.IsEmergencyExit = in.LaunchExit.IsEmergencyExit
		rec.Warnings = append(rec.Warnings, string(in.LaunchExit.ReasonCode)+": "+in.LaunchExit.ReasonDetail)
	}

	return rec
}

func checkGlobalSafety(in Input, cfg SafetyConfig) (bool, []string) {
	var warnings []string

	if consecutiveLossMonths(in.RecentProfits, cfg.InvestMaxLossPerMonthJPY) >= cfg.ConsecutiveLossMonths {
		warnings = append(warnings, "consecutive loss months exceeded monthly loss cap")
	}

	if last := lastProfit(in.RecentProfits); last != nil && last.NetProfitCumulative < -cfg.GlobalCumulativeLossLimit {
		warnings = append(warnings, "cumulative net loss breached global limit")
	}

	if in.Strategy.ReviewRating < cfg.MinReviewRating && in.Strategy.ReviewCount >= cfg.MinReviewCount {
		warnings = append(warnings, "review rating below floor with sufficient review volume")
	}

	return len(warnings) > 0, warnings
}

func consecutiveLossMonths(profits []domain.MonthlyProfit, capJPY float64) int {
	streak := 0
	for i := len(profits) - 1; i >= 0; i-- {
		if !profits[i].ExceededLossCap(capJPY) {
			break
		}
		streak++
	}
	return streak
}

func lastProfit(profits []domain.MonthlyProfit) *domain.MonthlyProfit {
	if len(profits) == 0 {
		return nil
	}
	return &profits[len(profits)-1]
}

// evaluateExtension grants one extra investment-window month when SEO trend,
// realized loss, and monthly TACOS are all within tolerance; it never
// exceeds the configured cap.
func evaluateExtension(in Input, cfg ExtensionConfig) int {
	if in.Strategy.InvestWindowDynamicMonths >= cfg.MaxDynamicMonths {
		return 0
	}

	seoOK := in.Seo.Trend == domain.TrendUp || in.Seo.Trend == domain.TrendFlat

	last := lastProfit(in.RecentProfits)
	if last == nil {
		return 0
	}
	lossOK := last.NetProfitMonthly >= 0 || -last.NetProfitMonthly <= cfg.LossToleranceRatio*in.Strategy.InvestMonthlyLossCapJPY
	tacosOK := last.TACOS <= in.Strategy.InvestTACOSCap

	if seoOK && lossOK && tacosOK {
		return 1
	}
	return 0
}

// nextStage implements the per-stage transition table (§4.8). The
// LaunchExitDecision override, when present, is applied by the caller after
// this returns.
func nextStage(in Input, cfg StageConfig) (domain.LifecycleStage, []string) {
	last := lastProfit(in.RecentProfits)

	switch in.Strategy.Stage {
	case domain.StageLaunchHard:
		if tacosExceeded(last, in.Strategy) || lossExceeded(last, in.Strategy) || seoStalled(in.Seo) {
			return domain.StageLaunchSoft, nil
		}
		if months := in.Strategy.MonthsSinceLaunch(in.Seo.Month); months > in.Strategy.InvestWindowMonths() &&
			in.Seo.IsHigh(cfg.SeoHighThreshold) &&
			last != nil && last.TACOS <= in.Strategy.SustainableTACOS*cfg.SustainableTacosSlack &&
			last != nil && last.NetProfitMonthly >= 0 {
			return domain.StageGrow, nil
		}
		return domain.StageLaunchHard, nil

	case domain.StageLaunchSoft:
		if in.Seo.IsHigh(cfg.SeoHighThreshold) && last != nil && last.NetProfitMonthly >= cfg.BreakevenTolerance &&
			inBand(last.TACOS, in.Strategy.SustainableTACOS) {
			return domain.StageGrow, nil
		}
		months := in.Strategy.MonthsSinceLaunch(in.Seo.Month)
		if months > in.Strategy.InvestWindowMonths() && in.Seo.RankZone != domain.ZoneTop && !in.Seo.IsHigh(cfg.SeoHighThreshold) &&
			last != nil && last.NetProfitCumulative < 0 {
			return domain.StageHarvest, nil
		}
		return domain.StageLaunchSoft, nil

	case domain.StageGrow:
		if in.Seo.IsHigh(cfg.SeoHighThreshold) && in.Seo.Trend != domain.TrendDown &&
			last != nil && last.TACOS <= in.Strategy.SustainableTACOS && last.NetProfitMonthly >= 0 {
			return domain.StageHarvest, nil
		}
		if in.Strategy.ReinvestAllowed && last != nil && lossExceeded(last, in.Strategy) {
			return domain.StageLaunchSoft, nil
		}
		return domain.StageGrow, nil

	case domain.StageHarvest:
		return domain.StageHarvest, nil

	default:
		return in.Strategy.Stage, nil
	}
}

func tacosExceeded(last *domain.MonthlyProfit, s domain.ProductStrategy) bool {
	return last != nil && last.TACOS > s.InvestTACOSCap
}

func lossExceeded(last *domain.MonthlyProfit, s domain.ProductStrategy) bool {
	return last != nil && last.ExceededLossCap(s.InvestMonthlyLossCapJPY)
}

func seoStalled(seo domain.SeoScore) bool {
	return seo.Trend == domain.TrendDown
}

func inBand(tacos, sustainable float64) bool {
	return tacos <= sustainable*1.1
}
