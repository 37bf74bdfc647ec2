// Package bid implements the bid-recommendation pipeline (coefficient
// calculator, action classifier, guardrail resolver, bid computer, and the
// batch engine that drives them). Every decision function here is pure: it
// takes a snapshot and a config and returns a value, with no I/O and no
// panics — callers in internal/orchestrator own the error taxonomy.
package bid

// EngineConfig holds every tunable threshold and multiplier the bid pipeline
// reads. It is read-only after construction, the same way the teacher's
// evaluation.models.ScoringConfig is treated as an immutable weights table.
type EngineConfig struct {
	// Click-volume gates (C1 stats coefficient, C2 data-starvation rule).
	MinClicksForDecision  int64
	MinClicksForConfident int64
	MinClicksForTOS       int64

	// C2 action-classifier ACOS-ratio breakpoints, invest mode.
	InvestStrongUpBelow   float64
	InvestMildUpBelow     float64
	InvestKeepBelow       float64
	InvestMildDownBelow   float64

	// C2 action-classifier ACOS-ratio breakpoints, normal mode.
	NormalStrongUpBelow float64
	NormalMildUpBelow   float64
	NormalKeepBelow     float64
	NormalMildDownBelow float64
	NormalStrongDownBelow float64

	// C1 cvr coefficient breakpoints (fractional delta vs baseline).
	CVRBreakLow  float64 // 0.10
	CVRBreakMid  float64 // 0.30
	CVRBreakHigh float64 // 0.40

	// C4 bid-computer clip bounds and base rates.
	MaxBidDecreaseRate float64 // negative, e.g. -0.5
	MaxBidIncreaseRate float64 // positive, e.g. 1.0
	MinBidMinorUnits   int64

	BaseRateByAction map[string]float64 // keyed by domain.BidAction value

	// C3 guardrails, per lifecycle stage / role.
	CoreLaunchHardMaxDownStep float64
	DefaultMaxDownStep        float64
}

// DefaultEngineConfig returns the calibration pinned by spec.md §4.1/§4.2:
// the tabulated break-points are the engine's behavior and must not drift
// silently between releases.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinClicksForDecision:  10,
		MinClicksForConfident: 50,
		MinClicksForTOS:       100,

		InvestStrongUpBelow: 0.7,
		InvestMildUpBelow:   0.9,
		InvestKeepBelow:     1.1,
		InvestMildDownBelow: 1.3,

		NormalStrongUpBelow:   0.5,
		NormalMildUpBelow:     0.8,
		NormalKeepBelow:       1.2,
		NormalMildDownBelow:   1.5,
		NormalStrongDownBelow: 2.0,

		CVRBreakLow:  0.10,
		CVRBreakMid:  0.30,
		CVRBreakHigh: 0.40,

		MaxBidDecreaseRate: -0.5,
		MaxBidIncreaseRate: 1.0,
		MinBidMinorUnits:   1,

		BaseRateByAction: map[string]float64{
			"STRONG_UP":   0.20,
			"MILD_UP":     0.08,
			"KEEP":        0.0,
			"MILD_DOWN":   -0.08,
			"STRONG_DOWN": -0.20,
			"STOP":        -1.0,
		},

		CoreLaunchHardMaxDownStep: 0.05,
		DefaultMaxDownStep:        0.30,
	}
}
