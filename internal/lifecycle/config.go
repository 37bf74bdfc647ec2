// Package lifecycle implements the lifecycle state machine (C8): global
// safety overrides, investment-window extension, and the per-stage
// transition table. It consumes the domain.LaunchExitDecision produced by
// internal/seo's launch-exit decider (C7) without importing that package.
package lifecycle

// SafetyConfig gates the global-safety override to HARVEST.
type SafetyConfig struct {
	ConsecutiveLossMonths   int
	InvestMaxLossPerMonthJPY float64
	GlobalCumulativeLossLimit float64
	MinReviewRating         float64
	MinReviewCount          int
}

// ExtensionConfig gates the investment-window extension rule.
type ExtensionConfig struct {
	MaxDynamicMonths  int
	LossToleranceRatio float64
}

// StageConfig holds the thresholds used by the per-stage transition table.
type StageConfig struct {
	SeoHighThreshold          float64
	SustainableTacosSlack     float64 // LAUNCH_HARD -> GROW allows sustainable * this
	BreakevenTolerance        float64
}

// Config bundles C8's tunables.
type Config struct {
	Safety    SafetyConfig
	Extension ExtensionConfig
	Stage     StageConfig
}

// DefaultConfig returns the calibration pinned by spec.md §4.8.
func DefaultConfig() Config {
	return Config{
		Safety: SafetyConfig{
			ConsecutiveLossMonths:     3,
			InvestMaxLossPerMonthJPY:  500000,
			GlobalCumulativeLossLimit: 3000000,
			MinReviewRating:           3.5,
			MinReviewCount:            20,
		},
		Extension: ExtensionConfig{
			MaxDynamicMonths:   3,
			LossToleranceRatio: 1.1,
		},
		Stage: StageConfig{
			SeoHighThreshold:      70,
			SustainableTacosSlack: 1.2,
			BreakevenTolerance:    0.0,
		},
	}
}
