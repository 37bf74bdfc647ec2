package backtest

import "github.com/mbicorp/adbid-engine/internal/domain"

// simulatedRow is one joined row's re-derived outcome: what spend and sales
// the stored recommendation's bid would plausibly have produced, scaled
// from the actual bid's observed performance.
type simulatedRow struct {
	row           joinedRow
	simSpend      float64
	simSales      float64
	correctDecision bool
}

// simulateDaily re-derives, for each joined row, what bid and resulting
// spend/sales would have obtained under the historical recommendation, then
// folds same-day rows together into one BacktestDailyDetail per date.
func simulateDaily(rows []joinedRow) []domain.BacktestDailyDetail {
	byDate := make(map[string]*domain.BacktestDailyDetail)
	order := make([]string, 0)

	for _, r := range rows {
		sim := simulateOne(r)

		key := sim.row.rec.Date.Format("2006-01-02")
		detail, ok := byDate[key]
		if !ok {
			detail = &domain.BacktestDailyDetail{Date: sim.row.rec.Date}
			byDate[key] = detail
			order = append(order, key)
		}

		detail.ActualSpend += sim.row.actual.Spend
		detail.ActualSales += sim.row.actual.Sales
		detail.SimulatedSpend += sim.simSpend
		detail.SimulatedSales += sim.simSales
		detail.MatchedDecisions++
		if sim.correctDecision {
			detail.CorrectDecisions++
		}
	}

	out := make([]domain.BacktestDailyDetail, 0, len(order))
	for _, key := range order {
		d := byDate[key]
		d.ActualACOS = acosOf(d.ActualSpend, d.ActualSales)
		d.SimulatedACOS = acosOf(d.SimulatedSpend, d.SimulatedSales)
		out = append(out, *d)
	}
	return out
}

// simulateOne re-derives one row's simulated spend/sales by scaling the
// actual performance by the ratio of recommended to actual bid — a bid
// increase is assumed to scale clicks (and so spend and sales)
// proportionally within a damped elasticity band; a bid at or below the
// floor (STOP) zeroes spend and sales.
func simulateOne(r joinedRow) simulatedRow {
	if r.rec.Action == domain.ActionStop || r.rec.RecommendedBid <= 0 {
		return simulatedRow{
			row:             r,
			simSpend:        0,
			simSales:        0,
			correctDecision: r.actual.Orders == 0,
		}
	}

	ratio := 1.0
	if r.actual.ActualBid > 0 {
		ratio = float64(r.rec.RecommendedBid) / float64(r.actual.ActualBid)
	}
	elasticity := dampedElasticity(ratio)

	simSpend := r.actual.Spend * elasticity
	simSales := r.actual.Sales * elasticity

	postHocOptimalUp := r.actual.Sales > 0 && acosOf(r.actual.Spend, r.actual.Sales) < 1.0
	recommendedUp := isUpAction(r.rec.Action)
	correct := recommendedUp == postHocOptimalUp

	return simulatedRow{row: r, simSpend: simSpend, simSales: simSales, correctDecision: correct}
}

// dampedElasticity maps a bid-change ratio to a spend/sales scaling factor,
// damped so a 2x bid does not naively imply 2x spend.
func dampedElasticity(bidRatio float64) float64 {
	if bidRatio <= 0 {
		return 0
	}
	return 1 + (bidRatio-1)*0.6
}

func isUpAction(a domain.BidAction) bool {
	return a == domain.ActionStrongUp || a == domain.ActionMildUp
}

func acosOf(spend, sales float64) float64 {
	if sales <= 0 {
		if spend <= 0 {
			return 0
		}
		return 1e9
	}
	return spend / sales
}
