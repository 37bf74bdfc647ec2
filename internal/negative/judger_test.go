package negative

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

// S7: a STOP_CANDIDATE cluster with zero conversions and enough clicks to
// satisfy the rule-of-three at the baseline CVR earns STOP_AND_NEG.
func TestJudge_S7_RuleOfThreeStopAndNeg(t *testing.T) {
	cfg := DefaultConfig()
	// baseline CVR 0.03 -> required = ceil(3/0.03 * (1-(0.5-0.5))) = 100
	m := ClusterMetrics{
		ProductID:      "asin-1",
		CanonicalQuery: "cheap generic widget",
		Intent:         domain.IntentGeneric,
		Impressions:    5000,
		Clicks:         120,
		Conversions:    0,
		BaselineCVR:    0.03,
	}

	sug := Judge(m, WhitelistStatus{}, cfg)

	assert.Equal(t, domain.PhaseStopCandidate, sug.Phase)
	assert.Equal(t, domain.VerdictStopAndNeg, sug.Verdict)
	assert.Equal(t, int64(100), sug.RequiredClicks)
}

// Below the rule-of-three click requirement, a zero-conversion cluster falls
// through to the down-only check instead of STOP_AND_NEG.
func TestJudge_BelowRequiredClicksNoStop(t *testing.T) {
	cfg := DefaultConfig()
	m := ClusterMetrics{
		ProductID:      "asin-1",
		CanonicalQuery: "cheap generic widget",
		Intent:         domain.IntentGeneric,
		Impressions:    5000,
		Clicks:         99, // just under the 100-click requirement
		Conversions:    0,
		BaselineCVR:    0.03,
	}

	sug := Judge(m, WhitelistStatus{}, cfg)
	assert.NotEqual(t, domain.VerdictStopAndNeg, sug.Verdict)
}

// Small (long-tail) impressions/clicks with zero conversions defer to
// MANUAL_REVIEW rather than an automatic stop. The long-tail guard runs
// inside STOP_CANDIDATE, so the phase cut-offs are lowered to put this
// 2-click cluster in that phase (with the defaults it would be LEARNING).
func TestJudge_LongTailDefersToManualReview(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningMaxClicks = 0
	cfg.LimitedActionMaxClicks = 0
	m := ClusterMetrics{
		ProductID:      "asin-1",
		CanonicalQuery: "obscure query",
		Intent:         domain.IntentGeneric,
		Impressions:    50,
		Clicks:         2,
		Conversions:    0,
		BaselineCVR:    0.03,
	}

	sug := Judge(m, WhitelistStatus{}, cfg)
	assert.Equal(t, domain.VerdictManualReview, sug.Verdict)
}

// LEARNING phase never emits a verdict beyond NONE, regardless of
// performance.
func TestJudge_LearningPhaseAlwaysNone(t *testing.T) {
	cfg := DefaultConfig()
	m := ClusterMetrics{
		ProductID:      "asin-1",
		CanonicalQuery: "new query",
		Intent:         domain.IntentGeneric,
		Clicks:         5,
		Conversions:    0,
		ACOS:           5.0,
		CVR:            0,
		BaselineCVR:    0.03,
	}

	sug := Judge(m, WhitelistStatus{}, cfg)
	assert.Equal(t, domain.PhaseLearning, sug.Phase)
	assert.Equal(t, domain.VerdictNone, sug.Verdict)
}

// LIMITED_ACTION phase can only emit BID_DOWN or NONE, never STOP_AND_NEG.
func TestJudge_LimitedActionNeverStops(t *testing.T) {
	cfg := DefaultConfig()
	m := ClusterMetrics{
		ProductID:      "asin-1",
		CanonicalQuery: "midrange query",
		Intent:         domain.IntentGeneric,
		Clicks:         40,
		Conversions:    0,
		CVR:            0,
		ACOS:           2.0,
		BaselineCVR:    0.03,
	}

	sug := Judge(m, WhitelistStatus{}, cfg)
	assert.Equal(t, domain.PhaseLimitedAction, sug.Phase)
	assert.NotEqual(t, domain.VerdictStopAndNeg, sug.Verdict)
	assert.Equal(t, domain.VerdictBidDown, sug.Verdict)
}

// An active whitelist (manual, global, or auto-top-spend) can only loosen a
// STOP_AND_NEG verdict to NONE, never tighten a milder verdict.
func TestJudge_WhitelistOverridesStopAndNeg(t *testing.T) {
	cfg := DefaultConfig()
	m := ClusterMetrics{
		ProductID:      "asin-1",
		CanonicalQuery: "cheap generic widget",
		Intent:         domain.IntentGeneric,
		Impressions:    5000,
		Clicks:         120,
		Conversions:    0,
		BaselineCVR:    0.03,
	}

	sug := Judge(m, WhitelistStatus{Global: true}, cfg)
	assert.Equal(t, domain.VerdictNone, sug.Verdict)
	assert.True(t, sug.WhitelistOverride)
}

func TestClassifyIntent_Priority(t *testing.T) {
	assert.Equal(t, domain.IntentChild, ClassifyIntent("kids vitamins for adults"))
	assert.Equal(t, domain.IntentAdult, ClassifyIntent("adult vitamins"))
	assert.Equal(t, domain.IntentConcern, ClassifyIntent("allergy relief"))
	assert.Equal(t, domain.IntentInfo, ClassifyIntent("how to use vitamins"))
	assert.Equal(t, domain.IntentGeneric, ClassifyIntent("daily vitamins"))
}

func TestIntentTaggerConfig_WithExtraKeywords_Immutable(t *testing.T) {
	base := DefaultIntentTaggerConfig()
	extended := base.WithExtraKeywords(domain.IntentConcern, "eczema")

	baseTagger := NewIntentTagger(base)
	extendedTagger := NewIntentTagger(extended)

	assert.Equal(t, domain.IntentGeneric, baseTagger.Classify("eczema cream"))
	assert.Equal(t, domain.IntentConcern, extendedTagger.Classify("eczema cream"))

	// Extending the config must not mutate the original tier in place.
	for _, s := range base.Sets {
		if s.Tag == domain.IntentConcern {
			assert.NotContains(t, s.Keywords, "eczema")
		}
	}
}
