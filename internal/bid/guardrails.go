package bid

import "github.com/mbicorp/adbid-engine/internal/domain"

// Guardrails bound how aggressively a single keyword may move down. They are
// resolved from coarse context (role, lifecycle stage, sale phase, loss
// budget state) rather than from the keyword's own metrics, so every
// keyword sharing that context gets the same ceiling.
type Guardrails struct {
	AllowStop       bool
	AllowStrongDown bool
	MaxDownStepRatio float64

	MinClicksForStop       int64
	MinClicksForStrongDown int64
	MaxOverspendRatio      float64 // resolved for reporting only; recheckAction does not consult it
}

// resolveGuardrails runs C3: the guardrail resolver.
func resolveGuardrails(role domain.KeywordRole, stage domain.LifecycleStage, phase domain.PhaseTag, lossState domain.InvestmentState, cfg EngineConfig) Guardrails {
	g := Guardrails{
		AllowStop:              true,
		AllowStrongDown:        true,
		MaxDownStepRatio:       cfg.DefaultMaxDownStep,
		MinClicksForStop:       cfg.MinClicksForConfident,
		MinClicksForStrongDown: cfg.MinClicksForDecision,
		MaxOverspendRatio:      2.0,
	}

	if role == domain.RoleCore && stage == domain.StageLaunchHard {
		g.AllowStop = false
		g.MaxDownStepRatio = cfg.CoreLaunchHardMaxDownStep
	}

	if phase == domain.PhasePre1 || phase == domain.PhasePre2 {
		g.AllowStop = false
		g.AllowStrongDown = false
		g.MaxDownStepRatio = 0
	}

	if lossState == domain.InvestBreach {
		g.AllowStop = true
		g.AllowStrongDown = true
		g.MaxDownStepRatio = cfg.DefaultMaxDownStep * 2
		g.MinClicksForStop = cfg.MinClicksForDecision
	}

	// A STOP is never permitted for a brand-own keyword, regardless of
	// lifecycle, sale-phase, or loss-budget relaxation above: the classifier
	// already downgrades STOP to MILD_DOWN for this role, this is the
	// guardrail-side belt to the classifier's suspenders.
	if role == domain.RoleBrandOwn {
		g.AllowStop = false
	}

	return g
}

// recheckAction runs the post-classification re-check against the resolved
// guardrails: a forbidden or under-evidenced action downgrades one step at a
// time along STOP -> STRONG_DOWN -> MILD_DOWN -> KEEP until it clears.
func recheckAction(action domain.BidAction, m domain.KeywordMetrics, g Guardrails) (domain.BidAction, []string) {
	var flags []string
	for {
		ok, flag := actionClearsGuardrails(action, m, g)
		if ok {
			return action, flags
		}
		flags = append(flags, flag)
		next := action.Milder()
		if next == action {
			return action, flags
		}
		action = next
	}
}

func actionClearsGuardrails(action domain.BidAction, m domain.KeywordMetrics, g Guardrails) (bool, string) {
	switch action {
	case domain.ActionStop:
		if !g.AllowStop {
			return false, "stop_forbidden_by_guardrail"
		}
		if m.RecentClicks < g.MinClicksForStop {
			return false, "stop_insufficient_clicks"
		}
	case domain.ActionStrongDown:
		if !g.AllowStrongDown {
			return false, "strong_down_forbidden_by_guardrail"
		}
		if m.RecentClicks < g.MinClicksForStrongDown {
			return false, "strong_down_insufficient_clicks"
		}
	case domain.ActionMildDown:
		if g.MaxDownStepRatio <= 0 {
			return false, "mild_down_frozen_by_guardrail"
		}
	}
	return true, ""
}
