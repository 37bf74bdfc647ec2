// Package negative implements the negative-keyword judger (C10): a
// per-query-cluster classifier that turns accumulated search-term
// performance into STOP_AND_NEG / BID_DOWN / MANUAL_REVIEW / NONE verdicts.
package negative

// Config holds C10's tunables.
type Config struct {
	LearningMaxClicks      int64 // c < this -> LEARNING
	LimitedActionMaxClicks int64 // c < this -> LIMITED_ACTION, else STOP_CANDIDATE

	LongTailMaxImpressions int64
	LongTailMaxClicks      int64

	MinimumBaselineCVR float64
	MinRequiredClicks  int64
	RiskTolerance      float64 // 0..1, 0.5 = neutral

	DownOnlyLowCVR   float64
	DownOnlyHighACOS float64
}

// DefaultConfig returns the calibration pinned by spec.md §4.10.
func DefaultConfig() Config {
	return Config{
		LearningMaxClicks:      20,
		LimitedActionMaxClicks: 60,

		LongTailMaxImpressions: 200,
		LongTailMaxClicks:      5,

		MinimumBaselineCVR: 0.01,
		MinRequiredClicks:  10,
		RiskTolerance:      0.5,

		DownOnlyLowCVR:   0.01,
		DownOnlyHighACOS: 0.6,
	}
}

// AutoExactConfig holds the tunables for the auto-exact promotion companion
// rule: a search term outgrows "negative candidate" territory and earns its
// own exact-match keyword once it clears a performance bar.
type AutoExactConfig struct {
	MinClicksForPromotion int64
	MinConversions        int64
	MaxACOSForPromotion    float64
}

// DefaultAutoExactConfig returns the calibration pinned by spec.md §6's
// auto-exact-promotion cron job.
func DefaultAutoExactConfig() AutoExactConfig {
	return AutoExactConfig{
		MinClicksForPromotion: 30,
		MinConversions:        3,
		MaxACOSForPromotion:   0.4,
	}
}
