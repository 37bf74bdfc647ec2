package domain

import "time"

// ProductStrategy is a product's lifecycle-management configuration and
// current stage, input to C7/C8 and consumed by C5's role×lifecycle
// guardrails.
type ProductStrategy struct {
	ProductID string

	Stage LifecycleStage

	SustainableTACOS   float64
	InvestTACOSCap     float64
	InvestMonthlyLossCapJPY float64

	InvestWindowBaseMonths    int
	InvestWindowDynamicMonths int // extension accumulated by C8 rule 2, capped at cfg.max_dynamic

	LaunchDate time.Time

	MarginRate float64
	UnitPrice  float64

	ReviewRating float64
	ReviewCount  int

	ReinvestAllowed bool

	BrandTerms       []string
	ProductCoreTerms []string
}

// InvestWindowMonths is the effective investment window (base + extension).
func (p ProductStrategy) InvestWindowMonths() int {
	return p.InvestWindowBaseMonths + p.InvestWindowDynamicMonths
}

// MonthsSinceLaunch computes whole months elapsed since LaunchDate as of asOf.
func (p ProductStrategy) MonthsSinceLaunch(asOf time.Time) int {
	years := asOf.Year() - p.LaunchDate.Year()
	months := int(asOf.Month()) - int(p.LaunchDate.Month())
	total := years*12 + months
	if asOf.Day() < p.LaunchDate.Day() {
		total--
	}
	if total < 0 {
		return 0
	}
	return total
}

// MonthlyProfit is a single product×month profitability record, input to C8.
type MonthlyProfit struct {
	ProductID string
	Month     time.Time // first-of-month

	Revenue               float64
	COGS                  float64
	GrossProfitBeforeAds  float64
	AdSpend               float64
	AdSales               float64

	TACOS float64
	ACOS  float64
	ROAS  float64

	NetProfitMonthly    float64
	NetProfitCumulative float64

	MonthsSinceLaunch int
}

// ExceededLossCap reports whether this month's net loss exceeded the
// product's configured monthly loss cap (used by C8 global safety and the
// per-stage transition table).
func (m MonthlyProfit) ExceededLossCap(capJPY float64) bool {
	return m.NetProfitMonthly < 0 && -m.NetProfitMonthly > capJPY
}
