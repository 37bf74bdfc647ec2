package backtest

import (
	"time"

	"github.com/mbicorp/adbid-engine/internal/domain"
)

// aggregateWeekly folds daily details into ISO-week buckets, keyed by the
// Monday of each week.
func aggregateWeekly(daily []domain.BacktestDailyDetail) []domain.BacktestDailyDetail {
	byWeek := make(map[string]*domain.BacktestDailyDetail)
	order := make([]string, 0)

	for _, d := range daily {
		weekStart := startOfISOWeek(d.Date)
		key := weekStart.Format("2006-01-02")

		w, ok := byWeek[key]
		if !ok {
			w = &domain.BacktestDailyDetail{Date: weekStart}
			byWeek[key] = w
			order = append(order, key)
		}

		w.ActualSpend += d.ActualSpend
		w.ActualSales += d.ActualSales
		w.SimulatedSpend += d.SimulatedSpend
		w.SimulatedSales += d.SimulatedSales
		w.MatchedDecisions += d.MatchedDecisions
		w.CorrectDecisions += d.CorrectDecisions
	}

	out := make([]domain.BacktestDailyDetail, 0, len(order))
	for _, key := range order {
		w := byWeek[key]
		w.ActualACOS = acosOf(w.ActualSpend, w.ActualSales)
		w.SimulatedACOS = acosOf(w.SimulatedSpend, w.SimulatedSales)
		out = append(out, *w)
	}
	return out
}

func startOfISOWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

// aggregateTotals sums the (already daily-or-weekly) series into the
// BacktestExecution totals and accuracy rate.
func aggregateTotals(req Request, series []domain.BacktestDailyDetail, totalDecisions int) domain.BacktestExecution {
	var result domain.BacktestExecution

	var correct int
	for _, s := range series {
		result.ActualSpend += s.ActualSpend
		result.ActualSales += s.ActualSales
		result.SimulatedSpend += s.SimulatedSpend
		result.SimulatedSales += s.SimulatedSales
		correct += s.CorrectDecisions
	}

	result.TotalDecisions = totalDecisions
	result.CorrectDecisions = correct
	if totalDecisions > 0 {
		result.AccuracyRate = float64(correct) / float64(totalDecisions)
	}

	result.ActualACOS = acosOf(result.ActualSpend, result.ActualSales)
	result.SimulatedACOS = acosOf(result.SimulatedSpend, result.SimulatedSales)
	result.ACOSDeltaPoints = (result.ActualACOS - result.SimulatedACOS) * 100

	result.SpendDelta = result.SimulatedSpend - result.ActualSpend
	result.SalesDelta = result.SimulatedSales - result.ActualSales
	result.EstimatedProfitGain = result.SalesDelta*req.MarginRate - result.SpendDelta

	return result
}
