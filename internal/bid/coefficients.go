package bid

import "github.com/mbicorp/adbid-engine/internal/domain"

// Coefficients are the seven positive multipliers C1 produces, each centered
// at 1.0. C4 multiplies them together against the base rate for the chosen
// action.
type Coefficients struct {
	Phase       float64
	CVR         float64
	RankGap     float64
	Competitor  float64
	Brand       float64
	Stats       float64
	TOS         float64
}

// Product returns the combined multiplier.
func (c Coefficients) Product() float64 {
	return c.Phase * c.CVR * c.RankGap * c.Competitor * c.Brand * c.Stats * c.TOS
}

var phaseMultiplier = map[domain.PhaseTag]float64{
	domain.PhaseNormal:  1.0,
	domain.PhasePre1:    1.2,
	domain.PhasePre2:    1.5,
	domain.PhaseFreeze:  0.0,
	domain.PhaseSNormal: 1.3,
	domain.PhaseFinal:   1.8,
	domain.PhaseRevert:  0.8,
}

func isUpAction(a domain.BidAction) bool {
	return a == domain.ActionStrongUp || a == domain.ActionMildUp
}

func isDownAction(a domain.BidAction) bool {
	return a == domain.ActionMildDown || a == domain.ActionStrongDown || a == domain.ActionStop
}

// computeCoefficients runs C1: the per-keyword coefficient calculator.
func computeCoefficients(m domain.KeywordMetrics, action domain.BidAction, cfg EngineConfig) Coefficients {
	return Coefficients{
		Phase:      phaseCoefficient(m.Phase),
		CVR:        cvrCoefficient(m, action, cfg),
		RankGap:    rankGapCoefficient(m, action),
		Competitor: competitorCoefficient(m, action),
		Brand:      brandCoefficient(m.Brand, action),
		Stats:      statsCoefficient(m.RecentClicks, cfg),
		TOS:        tosCoefficient(m, action),
	}
}

func phaseCoefficient(phase domain.PhaseTag) float64 {
	if v, ok := phaseMultiplier[phase]; ok {
		return v
	}
	return 1.0
}

// cvrCoefficient compares the fractional CVR delta against three
// breakpoints. In S_MODE the curve is steeper and must agree with the
// action's direction: a CVR drop only steepens a DOWN action, a CVR rise
// only steepens an UP action.
func cvrCoefficient(m domain.KeywordMetrics, action domain.BidAction, cfg EngineConfig) float64 {
	delta := m.CVRDelta()
	mag := delta
	if mag < 0 {
		mag = -mag
	}

	steep := m.Phase.IsSaleMode()
	directionAgrees := (delta >= 0 && isUpAction(action)) || (delta < 0 && isDownAction(action))

	step1, step2, step3 := 1.05, 1.10, 1.20
	if steep && directionAgrees {
		step1, step2, step3 = 1.10, 1.20, 1.35
	}

	switch {
	case mag >= cfg.CVRBreakHigh:
		return step3
	case mag >= cfg.CVRBreakMid:
		return step2
	case mag >= cfg.CVRBreakLow:
		return step1
	default:
		return 1.0
	}
}

// rankGapCoefficient only applies when the action is directional; a rank
// worse than target by at least one position accelerates UP, a rank better
// than target does the symmetric thing for DOWN.
func rankGapCoefficient(m domain.KeywordMetrics, action domain.BidAction) float64 {
	if m.OrganicRankCurrent == nil {
		return 1.0
	}
	gap := *m.OrganicRankCurrent - m.OrganicRankTarget

	if isUpAction(action) && gap >= 1 {
		return gapBucket(gap)
	}
	if isDownAction(action) && gap <= -1 {
		return gapBucket(-gap)
	}
	return 1.0
}

func gapBucket(gap int) float64 {
	switch {
	case gap >= 20:
		return 1.3
	case gap >= 10:
		return 1.2
	default:
		return 1.1
	}
}

// competitorCoefficient accelerates UP actions when competitor CPC and
// competitive strength both intensify; it never accelerates a DOWN action.
func competitorCoefficient(m domain.KeywordMetrics, action domain.BidAction) float64 {
	if !isUpAction(action) {
		return 1.0
	}
	ratio := m.CompetitorCPCRatio()
	if ratio <= 1.0 {
		return 1.0
	}
	intensity := (ratio - 1.0) * (0.5 + m.CompetitorStrength)
	switch {
	case intensity >= 0.5:
		return 1.3
	case intensity >= 0.2:
		return 1.15
	default:
		return 1.0
	}
}

func brandCoefficient(brand domain.BrandType, action domain.BidAction) float64 {
	switch brand {
	case domain.BrandOwn:
		if isUpAction(action) {
			return 1.2
		}
		if isDownAction(action) {
			return 0.8
		}
	case domain.Conquest:
		if action == domain.ActionStrongUp {
			return 0.9
		}
	}
	return 1.0
}

// statsCoefficient dampens decisions made on thin data and gives a small
// boost once the sample is large enough to trust TOS reporting.
func statsCoefficient(recentClicks int64, cfg EngineConfig) float64 {
	switch {
	case recentClicks < cfg.MinClicksForDecision:
		return 0.5
	case recentClicks >= cfg.MinClicksForTOS:
		return 1.1
	case recentClicks >= cfg.MinClicksForConfident:
		return 1.0
	default:
		return 1.0
	}
}

// tosCoefficient only engages during an active sale event, on a
// TOS-targeted keyword, for an UP action; it scales by the product of the
// TOS CTR and CVR multipliers, bucketed into the tabulated steps.
func tosCoefficient(m domain.KeywordMetrics, action domain.BidAction) float64 {
	if !(m.Phase.IsSaleMode() && m.IsTOSTargeted && isUpAction(action)) {
		return 1.0
	}
	combined := m.TOSCTRMultiplier * m.TOSCVRMultiplier
	switch {
	case combined >= 2.0:
		return 1.8
	case combined >= 1.5:
		return 1.5
	case combined >= 1.2:
		return 1.3
	default:
		return 1.2
	}
}
