package seo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

func rankPtr(v int) *int { return &v }

func coreKeyword(id string, tier domain.KeywordTier, volume int64) domain.CoreKeywordConfig {
	return domain.CoreKeywordConfig{
		KeywordID:     id,
		ProductID:     "asin-1",
		Tier:          tier,
		TargetRankMin: 1,
		TargetRankMax: 10,
		SearchVolume:  volume,
		Role:          domain.RoleCore,
	}
}

// A keyword ranking inside its target band with enough impressions/clicks is
// ACHIEVED regardless of spend, per §4.6.
func TestEvaluateASIN_AchievedKeyword(t *testing.T) {
	inputs := []KeywordInput{
		{
			Config: coreKeyword("kw-a", domain.TierBig, 1000),
			Summary: domain.KeywordRankSummary{
				KeywordID:        "kw-a",
				ProductID:        "asin-1",
				CurrentRank:      rankPtr(5),
				ImpressionsTotal: 600,
				ClicksTotal:      30,
			},
		},
	}

	statuses, progress := EvaluateASIN(inputs, DefaultEvaluatorConfig())
	assert.Equal(t, domain.SeoAchieved, statuses["kw-a"])
	assert.Equal(t, 1, progress.AchievedCount)
	assert.Equal(t, 0, progress.Total()-progress.AchievedCount)
}

// A BIG-tier keyword that never ranked well despite exceeding the min-days,
// min-clicks, and spend-multiple gates is GAVE_UP.
func TestEvaluateASIN_GaveUpKeyword(t *testing.T) {
	inputs := []KeywordInput{
		{
			Config: coreKeyword("kw-b", domain.TierBig, 1000),
			Summary: domain.KeywordRankSummary{
				KeywordID:        "kw-b",
				ProductID:        "asin-1",
				CurrentRank:      rankPtr(50),
				BestRank:         rankPtr(40), // worse than RankThreshold=20
				DaysWithRankData: 45,
				ClicksTotal:      200,
				CostTotal:        10000, // >= TargetCPA(3000) * CostMultiplier(2.0)
				ImpressionsTotal: 100,   // below MinImpressionsForRank, so not achieved
			},
		},
	}

	statuses, progress := EvaluateASIN(inputs, DefaultEvaluatorConfig())
	assert.Equal(t, domain.SeoGaveUp, statuses["kw-b"])
	assert.Equal(t, 1, progress.GaveUpCount)
}

// A keyword still within its grace window (not enough days/clicks/spend to
// be judged) is ACTIVE, neither achieved nor given up.
func TestEvaluateASIN_ActiveKeyword(t *testing.T) {
	inputs := []KeywordInput{
		{
			Config: coreKeyword("kw-c", domain.TierBig, 1000),
			Summary: domain.KeywordRankSummary{
				KeywordID:        "kw-c",
				ProductID:        "asin-1",
				CurrentRank:      rankPtr(50),
				DaysWithRankData: 5,
				ClicksTotal:      10,
				CostTotal:        100,
				ImpressionsTotal: 50,
			},
		},
	}

	statuses, progress := EvaluateASIN(inputs, DefaultEvaluatorConfig())
	assert.Equal(t, domain.SeoActive, statuses["kw-c"])
	assert.Equal(t, 1, progress.ActiveCount)
}

// Conservation property (§8 item 3): Achieved+GaveUp+Active always equals
// the number of input keywords, across a mixed batch.
func TestEvaluateASIN_ConservationProperty(t *testing.T) {
	inputs := []KeywordInput{
		{
			Config: coreKeyword("kw-achieved", domain.TierBig, 1000),
			Summary: domain.KeywordRankSummary{
				CurrentRank: rankPtr(3), ImpressionsTotal: 1000, ClicksTotal: 100,
			},
		},
		{
			Config: coreKeyword("kw-gaveup", domain.TierMiddle, 1000),
			Summary: domain.KeywordRankSummary{
				BestRank: rankPtr(60), DaysWithRankData: 30, ClicksTotal: 80, CostTotal: 5000,
			},
		},
		{
			Config: coreKeyword("kw-active", domain.TierBrand, 1000),
			Summary: domain.KeywordRankSummary{
				DaysWithRankData: 2, ClicksTotal: 3, CostTotal: 10,
			},
		},
		{
			Config: coreKeyword("kw-active-2", domain.TierBrand, 2500),
			Summary: domain.KeywordRankSummary{
				DaysWithRankData: 1, ClicksTotal: 1, CostTotal: 5,
			},
		},
	}

	_, progress := EvaluateASIN(inputs, DefaultEvaluatorConfig())
	assert.Equal(t, len(inputs), progress.Total())
	assert.Equal(t, len(inputs), progress.AchievedCount+progress.GaveUpCount+progress.ActiveCount)
}

func TestVolumeBucket_Classification(t *testing.T) {
	cfg := DefaultEvaluatorConfig()
	assert.Equal(t, domain.VolumeHigh, volumeBucket(3000, 1000, cfg))
	assert.Equal(t, domain.VolumeLow, volumeBucket(100, 1000, cfg))
	assert.Equal(t, domain.VolumeMid, volumeBucket(1000, 1000, cfg))
}
