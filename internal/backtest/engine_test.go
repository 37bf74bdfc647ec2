package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

func dateAt(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Only joined rows (matching keyword+date on both sides) are ever
// simulated; unmatched recommendations or outcomes are silently dropped
// from totals, not counted as decisions.
func TestRun_OnlyJoinsMatchingRows(t *testing.T) {
	req := Request{ExecutionID: "exec-1", Start: dateAt(2026, 1, 1), End: dateAt(2026, 1, 2), Granularity: "DAILY", MarginRate: 0.3}

	recs := []StoredRecommendation{
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 1), RecommendedBid: 150, Action: domain.ActionMildUp},
		{KeywordID: "kw-2", Date: dateAt(2026, 1, 1), RecommendedBid: 150, Action: domain.ActionMildUp}, // no matching actual
	}
	actuals := []ActualOutcome{
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 1), ActualBid: 100, Spend: 500, Sales: 2000, Clicks: 50, Orders: 5},
	}

	result, series := Run(req, recs, actuals)
	require.Len(t, series, 1)
	assert.Equal(t, 1, result.TotalDecisions)
}

// Accuracy rate (§8 item 8) is CorrectDecisions/TotalDecisions and is
// always within [0,1].
func TestRun_AccuracyRateBounded(t *testing.T) {
	req := Request{ExecutionID: "exec-2", Start: dateAt(2026, 1, 1), End: dateAt(2026, 1, 3), Granularity: "DAILY", MarginRate: 0.3}

	recs := []StoredRecommendation{
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 1), RecommendedBid: 150, Action: domain.ActionMildUp},
		{KeywordID: "kw-2", Date: dateAt(2026, 1, 1), RecommendedBid: 0, Action: domain.ActionStop},
		{KeywordID: "kw-3", Date: dateAt(2026, 1, 2), RecommendedBid: 80, Action: domain.ActionMildDown},
	}
	actuals := []ActualOutcome{
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 1), ActualBid: 100, Spend: 500, Sales: 2000, Clicks: 50, Orders: 5},
		{KeywordID: "kw-2", Date: dateAt(2026, 1, 1), ActualBid: 100, Spend: 300, Sales: 0, Clicks: 40, Orders: 0},
		{KeywordID: "kw-3", Date: dateAt(2026, 1, 2), ActualBid: 100, Spend: 600, Sales: 400, Clicks: 60, Orders: 2},
	}

	result, _ := Run(req, recs, actuals)
	require.Equal(t, 3, result.TotalDecisions)
	assert.GreaterOrEqual(t, result.AccuracyRate, 0.0)
	assert.LessOrEqual(t, result.AccuracyRate, 1.0)
}

// A STOP recommendation always simulates zero spend and zero sales, and is
// judged "correct" exactly when the actual outcome had zero orders.
func TestSimulateOne_StopZeroesSpendAndSales(t *testing.T) {
	row := joinedRow{
		rec:    StoredRecommendation{KeywordID: "kw-1", Date: dateAt(2026, 1, 1), RecommendedBid: 0, Action: domain.ActionStop},
		actual: ActualOutcome{KeywordID: "kw-1", Date: dateAt(2026, 1, 1), ActualBid: 100, Spend: 500, Sales: 100, Orders: 1},
	}

	sim := simulateOne(row)
	assert.Equal(t, 0.0, sim.simSpend)
	assert.Equal(t, 0.0, sim.simSales)
	assert.False(t, sim.correctDecision) // actual had an order, so STOP was wrong post-hoc
}

// WEEKLY granularity aggregates daily rows into week buckets keyed by
// Monday, and the weekly totals equal the sum of the underlying days.
func TestRun_WeeklyAggregationSumsDailyTotals(t *testing.T) {
	req := Request{ExecutionID: "exec-3", Start: dateAt(2026, 1, 1), End: dateAt(2026, 1, 8), Granularity: "WEEKLY", MarginRate: 0.3}

	recs := []StoredRecommendation{
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 5), RecommendedBid: 150, Action: domain.ActionMildUp}, // Monday
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 6), RecommendedBid: 150, Action: domain.ActionMildUp}, // Tuesday
	}
	actuals := []ActualOutcome{
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 5), ActualBid: 100, Spend: 100, Sales: 400, Clicks: 10, Orders: 1},
		{KeywordID: "kw-1", Date: dateAt(2026, 1, 6), ActualBid: 100, Spend: 200, Sales: 600, Clicks: 20, Orders: 2},
	}

	result, series := Run(req, recs, actuals)
	require.Len(t, series, 1)
	assert.Equal(t, result.ActualSpend, series[0].ActualSpend)
	assert.Equal(t, 300.0, series[0].ActualSpend)
}

func TestJoinKey_DateFormatIsStable(t *testing.T) {
	assert.Equal(t, "kw-1|2026-01-01", joinKey("kw-1", dateAt(2026, 1, 1)))
}
