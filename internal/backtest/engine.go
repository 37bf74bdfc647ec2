// Package backtest implements the backtest engine (C11): it replays stored
// recommendations against stored actual outcomes, re-simulates what each
// recommendation would have produced, and aggregates the comparison.
package backtest

import (
	"time"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

// ActualOutcome is one keyword×day's observed performance, as recorded by
// the advertising platform.
type ActualOutcome struct {
	KeywordID string
	Date      time.Time

	ActualBid    int64
	Spend        float64
	Sales        float64
	Clicks       int64
	Orders       int64
}

// StoredRecommendation is one historical BidRecommendation row, joined
// against ActualOutcome by (KeywordID, Date).
type StoredRecommendation struct {
	KeywordID      string
	Date           time.Time
	RecommendedBid int64
	Action         domain.BidAction
}

// Request parameterizes one backtest run.
type Request struct {
	ExecutionID    string
	Start, End     time.Time
	Granularity    string // DAILY or WEEKLY
	MarginRate     float64
	ASINFilter     []string
	CampaignFilter []string
}

// joinedRow is one (keyword, date) pair with both its historical
// recommendation and its actual outcome.
type joinedRow struct {
	rec    StoredRecommendation
	actual ActualOutcome
}

// Run executes C11 over the given recommendations and outcomes, which the
// caller has already filtered to the requested date range and ASIN/campaign
// scope. It returns the aggregated execution totals plus the daily (or
// weekly, per req.Granularity) detail series the caller persists alongside it.
func Run(req Request, recs []StoredRecommendation, actuals []ActualOutcome) (domain.BacktestExecution, []domain.BacktestDailyDetail) {
	start := time.Now()

	joined := join(recs, actuals)
	daily := simulateDaily(joined)

	var series []domain.BacktestDailyDetail
	if req.Granularity == "WEEKLY" {
		series = aggregateWeekly(daily)
	} else {
		series = daily
	}

	result := aggregateTotals(req, series, len(joined))
	result.ExecutionID = req.ExecutionID
	result.StartDate = req.Start
	result.EndDate = req.End
	result.Granularity = req.Granularity
	result.MarginRate = req.MarginRate
	result.ASINFilter = req.ASINFilter
	result.CampaignFilter = req.CampaignFilter
	result.CreatedAt = start
	result.DurationMS = time.Since(start).Milliseconds()

	for i := range series {
		series[i].ExecutionID = req.ExecutionID
	}

	return result, series
}

func join(recs []StoredRecommendation, actuals []ActualOutcome) []joinedRow {
	byKey := make(map[string]ActualOutcome, len(actuals))
	for _, a := range actuals {
		byKey[joinKey(a.KeywordID, a.Date)] = a
	}

	out := make([]joinedRow, 0, len(recs))
	for _, r := range recs {
		if a, ok := byKey[joinKey(r.KeywordID, r.Date)]; ok {
			out = append(out, joinedRow{rec: r, actual: a})
		}
	}
	return out
}

func joinKey(keywordID string, date time.Time) string {
	return keywordID + "|" + date.Format("2006-01-02")
}
