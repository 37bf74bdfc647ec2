// Package seo implements the SEO launch evaluator (C6) and the launch-exit
// decider (C7). Both are pure functions over domain snapshots; the
// LaunchExitDecision they emit lives in internal/domain so this package
// never imports internal/lifecycle.
package seo

import "github.com/mbicorp/adbid-engine/internal/domain"

// TierThresholds is the base per-keyword-tier gating used before volume-
// bucket scaling is applied.
type TierThresholds struct {
	MinDays        int
	MinClicks      int64
	RankThreshold  int
	TargetCPA      float64
	CostMultiplier float64
	MaxCVR         float64
	MaxACOS        float64
}

// EvaluatorConfig holds C6's tunables. BIG keywords get their own base
// table; MIDDLE and BRAND share one, per spec.md §4.6 ("Base values by tier
// (BIG vs MID/BRAND)").
type EvaluatorConfig struct {
	MinImpressionsForRank int64
	MinClicksForRank      int64

	BigTierBase    TierThresholds
	OtherTierBase  TierThresholds

	BucketMultiplier map[domain.VolumeBucket]float64
	HighBucketRankAdjust int // subtracted from rank threshold for HIGH volume
	LowBucketRankAdjust  int // added to rank threshold for LOW volume

	HighVolumeRatio float64 // >= this -> HIGH bucket
	LowVolumeRatio  float64 // < this -> LOW bucket
}

// DefaultEvaluatorConfig returns the calibration pinned by spec.md §4.6.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		MinImpressionsForRank: 500,
		MinClicksForRank:      20,

		BigTierBase: TierThresholds{
			MinDays:        30,
			MinClicks:      100,
			RankThreshold:  20,
			TargetCPA:      3000,
			CostMultiplier: 2.0,
			MaxCVR:         0.02,
			MaxACOS:        0.5,
		},
		OtherTierBase: TierThresholds{
			MinDays:        21,
			MinClicks:      50,
			RankThreshold:  30,
			TargetCPA:      2000,
			CostMultiplier: 2.0,
			MaxCVR:         0.015,
			MaxACOS:        0.45,
		},

		BucketMultiplier: map[domain.VolumeBucket]float64{
			domain.VolumeHigh: 1.3,
			domain.VolumeMid:  1.0,
			domain.VolumeLow:  0.7,
		},
		HighBucketRankAdjust: 5,
		LowBucketRankAdjust:  5,

		HighVolumeRatio: 2.0,
		LowVolumeRatio:  0.5,
	}
}

// baseForTier picks the BIG table or the shared MIDDLE/BRAND table.
func (c EvaluatorConfig) baseForTier(tier domain.KeywordTier) TierThresholds {
	if tier == domain.TierBig {
		return c.BigTierBase
	}
	return c.OtherTierBase
}

// LaunchExitConfig holds C7's tunables.
type LaunchExitConfig struct {
	EmergencyLossRatioThreshold    float64
	LaunchInvestCriticalThreshold  float64

	MinCoreCompletionRatio float64
	MinLaunchDays          int
	MinASINClicksTotal     int64
	MinASINOrdersTotal     int64

	SeoCompletionWarningThreshold float64

	RefDailySales  float64
	MinVolumeScale float64
	MaxVolumeScale float64
}

// DefaultLaunchExitConfig returns the calibration pinned by spec.md §4.7.
func DefaultLaunchExitConfig() LaunchExitConfig {
	return LaunchExitConfig{
		EmergencyLossRatioThreshold:   1.2,
		LaunchInvestCriticalThreshold: 0.9,

		MinCoreCompletionRatio: 0.7,
		MinLaunchDays:          60,
		MinASINClicksTotal:     2000,
		MinASINOrdersTotal:     50,

		SeoCompletionWarningThreshold: 0.4,

		RefDailySales:  10,
		MinVolumeScale: 0.5,
		MaxVolumeScale: 2.0,
	}
}
