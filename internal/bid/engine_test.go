package bid

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

func intPtr(v int) *int { return &v }

func baseKeyword() domain.KeywordMetrics {
	return domain.KeywordMetrics{
		KeywordID:             "kw-1",
		CampaignID:            "camp-1",
		ProductID:             "asin-1",
		CurrentBid:            100,
		CVRRecent:             0.06,
		CVRBaseline:           0.03,
		RecentClicks:          50,
		OrganicRankCurrent:    intPtr(7),
		OrganicRankTarget:     3,
		Brand:                 domain.Generic,
		Role:                  domain.RoleSupport,
		ACOSActual:            0.10,
		ACOSTarget:            0.25,
		Phase:                 domain.PhaseNormal,
		CompetitorCPCCurrent:  1.0,
		CompetitorCPCBaseline: 1.0,
	}
}

// S1: strong CVR improvement, rank gap favoring UP, generic brand, normal
// mode, good ACOS ratio -> STRONG_UP with a positive change rate.
func TestEngine_S1_StrongUpWithPositiveChangeRate(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	batch := Batch{
		ExecutionID: "exec-1",
		AsOf:        time.Now(),
		Metrics:     []domain.KeywordMetrics{baseKeyword()},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageGrow},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	recs := eng.Run(batch)
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.Equal(t, domain.ActionStrongUp, rec.Action)
	assert.Greater(t, rec.ChangeRate, 0.0)
	assert.Greater(t, rec.RecommendedBid, rec.CurrentBid)
}

// S2: identical to S1 but phase=S_FREEZE forces KEEP with a zero change rate.
func TestEngine_S2_FreezePhaseForcesKeep(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	m := baseKeyword()
	m.Phase = domain.PhaseFreeze

	batch := Batch{
		ExecutionID: "exec-2",
		AsOf:        time.Now(),
		Metrics:     []domain.KeywordMetrics{m},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageGrow},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	recs := eng.Run(batch)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionKeep, recs[0].Action)
	assert.Equal(t, 0.0, recs[0].ChangeRate)
}

// S3: BRAND_OWN role with a very bad ACOS ratio (2.5, normal mode) would
// classify STOP, but the brand-own post-process downgrades it to MILD_DOWN.
func TestEngine_S3_BrandOwnNeverStops(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	m := baseKeyword()
	m.Role = domain.RoleBrandOwn
	m.Brand = domain.BrandOwn
	m.ACOSActual = 0.625
	m.ACOSTarget = 0.25 // ratio 2.5

	batch := Batch{
		ExecutionID: "exec-3",
		AsOf:        time.Now(),
		Metrics:     []domain.KeywordMetrics{m},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageGrow},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	recs := eng.Run(batch)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionMildDown, recs[0].Action)
	assert.NotEqual(t, domain.ActionStop, recs[0].Action)
}

// S3b: the BRAND_OWN suppression is keyed on role, not brand type. A
// keyword with Role=BRAND_OWN but Brand=GENERIC must still never STOP.
func TestEngine_S3b_BrandOwnRoleNeverStopsRegardlessOfBrandType(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	m := baseKeyword()
	m.Role = domain.RoleBrandOwn
	m.Brand = domain.Generic
	m.ACOSActual = 0.625
	m.ACOSTarget = 0.25 // ratio 2.5

	batch := Batch{
		ExecutionID: "exec-3b",
		AsOf:        time.Now(),
		Metrics:     []domain.KeywordMetrics{m},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageGrow},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	recs := eng.Run(batch)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionMildDown, recs[0].Action)
	assert.NotEqual(t, domain.ActionStop, recs[0].Action)
}

// Guardrail invariant: CORE role in LAUNCH_HARD never emits STOP, even with
// a catastrophic ACOS ratio and enough clicks to otherwise qualify.
func TestEngine_CoreLaunchHardNeverStops(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	m := baseKeyword()
	m.Role = domain.RoleCore
	m.Brand = domain.Generic
	m.RecentClicks = 200
	m.ACOSActual = 1.0
	m.ACOSTarget = 0.1 // ratio 10; LAUNCH_HARD is invest mode -> STRONG_DOWN

	batch := Batch{
		ExecutionID: "exec-4",
		AsOf:        time.Now(),
		Metrics:     []domain.KeywordMetrics{m},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageLaunchHard},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	recs := eng.Run(batch)
	require.Len(t, recs, 1)
	assert.NotEqual(t, domain.ActionStop, recs[0].Action)
	assert.GreaterOrEqual(t, recs[0].RecommendedBid, DefaultEngineConfig().MinBidMinorUnits)
}

// Determinism (§8 property 1): the same input and config run twice yields
// bit-identical recommendations.
func TestEngine_Deterministic(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	asOf := time.Now()
	batch := Batch{
		ExecutionID: "exec-5",
		AsOf:        asOf,
		Metrics:     []domain.KeywordMetrics{baseKeyword()},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageGrow},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	first := eng.Run(batch)
	second := eng.Run(batch)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Action, second[0].Action)
	assert.Equal(t, first[0].ChangeRate, second[0].ChangeRate)
	assert.Equal(t, first[0].RecommendedBid, second[0].RecommendedBid)
}

// Engine always emits exactly one recommendation per input keyword (§4.5).
func TestEngine_OneRecommendationPerKeyword(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	m1, m2, m3 := baseKeyword(), baseKeyword(), baseKeyword()
	m1.KeywordID, m2.KeywordID, m3.KeywordID = "kw-1", "kw-2", "kw-3"

	batch := Batch{
		ExecutionID: "exec-6",
		AsOf:        time.Now(),
		Metrics:     []domain.KeywordMetrics{m1, m2, m3},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageGrow},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	recs := eng.Run(batch)
	assert.Len(t, recs, 3)
}

// New bid is always at least the configured min bid floor (§8 property 5).
func TestEngine_NewBidNeverBelowMinBid(t *testing.T) {
	eng := NewEngine(DefaultEngineConfig(), zerolog.Nop())
	m := baseKeyword()
	m.CurrentBid = 1
	m.ACOSActual = 5.0
	m.ACOSTarget = 0.1
	m.RecentClicks = 200

	batch := Batch{
		ExecutionID: "exec-7",
		AsOf:        time.Now(),
		Metrics:     []domain.KeywordMetrics{m},
		Strategies: map[string]domain.ProductStrategy{
			"asin-1": {ProductID: "asin-1", Stage: domain.StageGrow},
		},
		LossBudgets: map[string]domain.LossBudgetSummary{
			"asin-1": {ProductID: "asin-1", State: domain.InvestSafe},
		},
	}

	recs := eng.Run(batch)
	require.Len(t, recs, 1)
	assert.GreaterOrEqual(t, recs[0].RecommendedBid, DefaultEngineConfig().MinBidMinorUnits)
}
