package seo

import "github.com/mbicorp/adbid-engine/internal/domain"

// KeywordInput pairs a CORE keyword's static configuration with its
// measured rank/performance summary for one evaluation window.
type KeywordInput struct {
	Config  domain.CoreKeywordConfig
	Summary domain.KeywordRankSummary
}

// EvaluateASIN runs C6 over every CORE keyword configured for one ASIN: it
// classifies each keyword's SEO launch status and rolls the statuses up
// into AsinSeoLaunchProgress.
func EvaluateASIN(inputs []KeywordInput, cfg EvaluatorConfig) (map[string]domain.SeoKeywordStatus, domain.AsinSeoLaunchProgress) {
	statuses := make(map[string]domain.SeoKeywordStatus, len(inputs))
	medianVolume := medianSearchVolume(inputs)

	var progress domain.AsinSeoLaunchProgress
	for _, in := range inputs {
		progress.ProductID = in.Config.ProductID
		status := classifyKeyword(in, medianVolume, cfg)
		statuses[in.Config.KeywordID] = status

		switch status {
		case domain.SeoAchieved:
			progress.AchievedCount++
		case domain.SeoGaveUp:
			progress.GaveUpCount++
		default:
			progress.ActiveCount++
		}
	}
	return statuses, progress
}

func medianSearchVolume(inputs []KeywordInput) float64 {
	volumes := make([]float64, 0, len(inputs))
	for _, in := range inputs {
		volumes = append(volumes, float64(in.Config.SearchVolume))
	}
	return median(volumes)
}

// classifyKeyword runs the per-keyword classification described in
// spec.md §4.6.
func classifyKeyword(in KeywordInput, medianVolume float64, cfg EvaluatorConfig) domain.SeoKeywordStatus {
	thresholds, bucket := effectiveThresholds(in.Config, medianVolume, cfg)
	_ = bucket
	s := in.Summary

	if achieved(s, in.Config, cfg) {
		return domain.SeoAchieved
	}
	if gaveUp(s, thresholds) {
		return domain.SeoGaveUp
	}
	return domain.SeoActive
}

func achieved(s domain.KeywordRankSummary, cfg domain.CoreKeywordConfig, ec EvaluatorConfig) bool {
	if s.CurrentRank == nil {
		return false
	}
	return *s.CurrentRank <= cfg.TargetRankMax &&
		s.ImpressionsTotal >= ec.MinImpressionsForRank &&
		s.ClicksTotal >= ec.MinClicksForRank
}

func gaveUp(s domain.KeywordRankSummary, t TierThresholds) bool {
	gated := s.DaysWithRankData >= t.MinDays && s.ClicksTotal >= t.MinClicks && s.CostTotal >= t.TargetCPA*t.CostMultiplier
	if !gated {
		return false
	}

	rankFailure := s.BestRank == nil || *s.BestRank > t.RankThreshold
	if rankFailure {
		return true
	}

	performanceFailure := s.CVR() <= t.MaxCVR && s.ACOS() >= t.MaxACOS
	return performanceFailure
}

// effectiveThresholds resolves the dynamic (tier, volumeBucket) thresholds
// for one keyword.
func effectiveThresholds(cfg domain.CoreKeywordConfig, medianVolume float64, ec EvaluatorConfig) (TierThresholds, domain.VolumeBucket) {
	base := ec.baseForTier(cfg.Tier)
	bucket := volumeBucket(cfg.SearchVolume, medianVolume, ec)
	mult := ec.BucketMultiplier[bucket]

	out := base
	out.MinDays = int(float64(base.MinDays) * mult)
	out.MinClicks = int64(float64(base.MinClicks) * mult)

	switch bucket {
	case domain.VolumeHigh:
		out.RankThreshold = base.RankThreshold - ec.HighBucketRankAdjust
	case domain.VolumeLow:
		out.RankThreshold = base.RankThreshold + ec.LowBucketRankAdjust
	default:
		out.RankThreshold = base.RankThreshold
	}

	return out, bucket
}

func volumeBucket(searchVolume int64, medianVolume float64, ec EvaluatorConfig) domain.VolumeBucket {
	var ratio float64
	if medianVolume == 0 {
		ratio = 1.0
	} else {
		ratio = float64(searchVolume) / medianVolume
	}

	switch {
	case ratio >= ec.HighVolumeRatio:
		return domain.VolumeHigh
	case ratio < ec.LowVolumeRatio:
		return domain.VolumeLow
	default:
		return domain.VolumeMid
	}
}
