package bid

import "github.com/mbicorp/adbid-engine/internal/domain"

// classifyAction runs C2: the action classifier. investMode is true when the
// product's lifecycle stage is LAUNCH_HARD or LAUNCH_SOFT.
func classifyAction(m domain.KeywordMetrics, investMode bool, cfg EngineConfig) domain.BidAction {
	if m.RecentClicks < cfg.MinClicksForDecision {
		if investMode {
			return domain.ActionMildUp
		}
		return domain.ActionKeep
	}

	r := m.ACOSRatio()
	action := classifyByRatio(r, investMode, cfg)

	if m.Role == domain.RoleBrandOwn && (action == domain.ActionStrongDown || action == domain.ActionStop) {
		action = domain.ActionMildDown
	}
	if m.Phase == domain.PhaseFreeze {
		action = domain.ActionKeep
	}
	return action
}

func classifyByRatio(r float64, investMode bool, cfg EngineConfig) domain.BidAction {
	if investMode {
		switch {
		case r < cfg.InvestStrongUpBelow:
			return domain.ActionStrongUp
		case r < cfg.InvestMildUpBelow:
			return domain.ActionMildUp
		case r < cfg.InvestKeepBelow:
			return domain.ActionKeep
		case r < cfg.InvestMildDownBelow:
			return domain.ActionMildDown
		default:
			return domain.ActionStrongDown
		}
	}

	switch {
	case r < cfg.NormalStrongUpBelow:
		return domain.ActionStrongUp
	case r < cfg.NormalMildUpBelow:
		return domain.ActionMildUp
	case r < cfg.NormalKeepBelow:
		return domain.ActionKeep
	case r < cfg.NormalMildDownBelow:
		return domain.ActionMildDown
	case r < cfg.NormalStrongDownBelow:
		return domain.ActionStrongDown
	default:
		return domain.ActionStop
	}
}
