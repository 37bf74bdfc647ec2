package bid

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

// Engine drives C1-C4 over a batch of keyword snapshots. It never blocks on
// I/O; callers load KeywordMetrics and ProductStrategy/LossBudgetSummary
// ahead of time and hand them in as a single Batch.
type Engine struct {
	cfg EngineConfig
	log zerolog.Logger
}

// NewEngine builds an Engine with the given configuration and logger.
func NewEngine(cfg EngineConfig, log zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, log: log.With().Str("component", "bid_engine").Logger()}
}

// Batch is one engine invocation's input: per-keyword metrics plus the
// per-product context (lifecycle stage drives invest mode, loss-budget state
// feeds the guardrail resolver).
type Batch struct {
	ExecutionID string
	AsOf        time.Time
	Metrics     []domain.KeywordMetrics
	Strategies  map[string]domain.ProductStrategy  // keyed by ProductID
	LossBudgets map[string]domain.LossBudgetSummary // keyed by ProductID
}

// Run executes C5: it emits exactly one BidRecommendation per input
// keyword, never fewer and never more. A panic or computation failure on a
// single keyword is caught, logged, and surfaces as a KEEP recommendation
// carrying the error in ReasonDetail; the rest of the batch continues.
func (e *Engine) Run(b Batch) []domain.BidRecommendation {
	out := make([]domain.BidRecommendation, 0, len(b.Metrics))
	for _, m := range b.Metrics {
		out = append(out, e.runOne(b, m))
	}
	return out
}

func (e *Engine) runOne(b Batch, m domain.KeywordMetrics) (rec domain.BidRecommendation) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("keyword_id", m.KeywordID).
				Interface("panic", r).
				Msg("bid engine: keyword decision panicked, emitting KEEP fallback")
			rec = fallbackRecommendation(b, m, fmt.Sprintf("internal error: %v", r))
		}
	}()

	strategy := b.Strategies[m.ProductID]
	lossState := b.LossBudgets[m.ProductID].State
	investMode := strategy.Stage.IsLaunch()

	action := classifyAction(m, investMode, e.cfg)

	guardrails := resolveGuardrails(m.Role, strategy.Stage, m.Phase, lossState, e.cfg)
	action, flags := recheckAction(action, m, guardrails)

	coeffs := computeCoefficients(m, action, e.cfg)
	bidResult := computeBid(m, action, coeffs, guardrails, e.cfg)

	facts, logic, impact := buildReasonTriple(m, action, coeffs, bidResult, investMode)

	return domain.BidRecommendation{
		RecordBase: domain.RecordBase{
			ExecutionID:  b.ExecutionID,
			EntityID:     m.KeywordID,
			ReasonCode:   string(action),
			ReasonDetail: facts + " | " + logic + " | " + impact,
			Status:       domain.StatusPending,
			CreatedAt:    b.AsOf,
		},
		KeywordID:      m.KeywordID,
		CampaignID:     m.CampaignID,
		ProductID:      m.ProductID,
		InputSnapshot:  m,
		Action:         action,
		CurrentBid:     m.CurrentBid,
		RecommendedBid: bidResult.NewBid,
		ChangeRate:     bidResult.ChangeRate,
		Clipped:        bidResult.Clipped,
		ClipReason:     bidResult.ClipReason,
		GuardrailFlags: flags,
	}
}

// fallbackRecommendation is what a single keyword's unrecoverable failure
// emits: a no-op KEEP that still satisfies the "one recommendation per
// input" invariant.
func fallbackRecommendation(b Batch, m domain.KeywordMetrics, errMsg string) domain.BidRecommendation {
	return domain.BidRecommendation{
		RecordBase: domain.RecordBase{
			ExecutionID:  b.ExecutionID,
			EntityID:     m.KeywordID,
			ReasonCode:   string(domain.ActionKeep),
			ReasonDetail: "engine_error: " + errMsg,
			Status:       domain.StatusPending,
			CreatedAt:    b.AsOf,
		},
		KeywordID:      m.KeywordID,
		CampaignID:     m.CampaignID,
		ProductID:      m.ProductID,
		InputSnapshot:  m,
		Action:         domain.ActionKeep,
		CurrentBid:     m.CurrentBid,
		RecommendedBid: m.CurrentBid,
		ChangeRate:     0,
	}
}

// buildReasonTriple produces the three-part explanation C5 attaches to every
// recommendation: the input facts that drove the decision, the classifier
// logic that fired, and the quantified impact of the chosen action.
func buildReasonTriple(m domain.KeywordMetrics, action domain.BidAction, coeffs Coefficients, result BidResult, investMode bool) (facts, logic, impact string) {
	mode := "normal"
	if investMode {
		mode = "invest"
	}
	facts = fmt.Sprintf("acos_ratio=%.2f clicks=%d cvr_delta=%.2f mode=%s", m.ACOSRatio(), m.RecentClicks, m.CVRDelta(), mode)
	logic = fmt.Sprintf("action=%s coeff_product=%.3f", action, coeffs.Product())
	impact = fmt.Sprintf("bid %d -> %d (%.1f%%)%s", m.CurrentBid, result.NewBid, result.ChangeRate*100, clipSuffix(result))
	return facts, logic, impact
}

func clipSuffix(r BidResult) string {
	if !r.Clipped {
		return ""
	}
	return fmt.Sprintf(" clipped:%s", r.ClipReason)
}
