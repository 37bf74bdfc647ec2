package negative

import (
	"math"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

// ClusterMetrics is one (ASIN, query-cluster) pair's accumulated
// performance, the input to C10.
type ClusterMetrics struct {
	ProductID      string
	CanonicalQuery string
	Intent         domain.IntentTag

	Impressions int64
	Clicks      int64
	Conversions int64

	BaselineCVR float64
	ACOS        float64
	CVR         float64
}

// WhitelistStatus describes the hybrid override inputs for one cluster:
// manual per-ASIN whitelisting, a global whitelist, or auto-detection as a
// top-N spend query. Any true entry can only loosen a verdict, never
// tighten it.
type WhitelistStatus struct {
	ManualPerASIN bool
	Global        bool
	AutoTopSpend  bool
}

func (w WhitelistStatus) active() bool {
	return w.ManualPerASIN || w.Global || w.AutoTopSpend
}

// Judge runs C10 for one cluster.
func Judge(m ClusterMetrics, wl WhitelistStatus, cfg Config) domain.NegativeKeywordSuggestion {
	sug := domain.NegativeKeywordSuggestion{
		RecordBase: domain.RecordBase{
			EntityID: ClusterKey(m.CanonicalQuery, m.Intent),
			Status:   domain.StatusPending,
		},
		ProductID:          m.ProductID,
		CanonicalQuery:     m.CanonicalQuery,
		Intent:             m.Intent,
		ClusterClicks:      m.Clicks,
		ClusterConversions: m.Conversions,
	}

	sug.Phase = phaseFor(m.Clicks, cfg)

	switch sug.Phase {
	case domain.PhaseLearning:
		sug.Verdict = domain.VerdictNone
	case domain.PhaseLimitedAction:
		sug.Verdict = downOnlyVerdict(m, cfg)
	default:
		sug.Verdict, sug.RequiredClicks = stopCandidateVerdict(m, cfg)
	}

	if wl.active() && sug.Verdict == domain.VerdictStopAndNeg {
		sug.Verdict = domain.VerdictNone
		sug.WhitelistOverride = true
	}

	return sug
}

func phaseFor(clicks int64, cfg Config) domain.NegativePhase {
	switch {
	case clicks < cfg.LearningMaxClicks:
		return domain.PhaseLearning
	case clicks < cfg.LimitedActionMaxClicks:
		return domain.PhaseLimitedAction
	default:
		return domain.PhaseStopCandidate
	}
}

func stopCandidateVerdict(m ClusterMetrics, cfg Config) (domain.NegativeVerdict, int64) {
	if m.Impressions < cfg.LongTailMaxImpressions && m.Clicks < cfg.LongTailMaxClicks && m.Conversions == 0 {
		return domain.VerdictManualReview, 0
	}

	required := requiredClicksForZeroCVR(m.BaselineCVR, cfg)
	if m.Conversions == 0 && m.Clicks >= required {
		return domain.VerdictStopAndNeg, required
	}

	return downOnlyVerdict(m, cfg), required
}

// requiredClicksForZeroCVR computes the click count needed to trust an
// observed zero-conversion cluster as a genuine non-converter, per
// spec.md §4.10's rule of three.
func requiredClicksForZeroCVR(baselineCVR float64, cfg Config) int64 {
	baseline := baselineCVR
	if baseline < cfg.MinimumBaselineCVR {
		baseline = cfg.MinimumBaselineCVR
	}
	required := math.Ceil(3.0 / baseline * (1 - (cfg.RiskTolerance - 0.5)))
	if int64(required) < cfg.MinRequiredClicks {
		return cfg.MinRequiredClicks
	}
	return int64(required)
}

func downOnlyVerdict(m ClusterMetrics, cfg Config) domain.NegativeVerdict {
	if m.CVR <= cfg.DownOnlyLowCVR && m.ACOS >= cfg.DownOnlyHighACOS {
		return domain.VerdictBidDown
	}
	return domain.VerdictNone
}
