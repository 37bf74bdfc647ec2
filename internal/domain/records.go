package domain

import "time"

// RecordBase holds the fields common to every recommendation record kind.
// Recommendation records are produced append-only; Status is the only
// mutable field, updated only through the approve/reject/apply flow via an
// optimistic compare-and-set (§5 "Shared-resource policy").
type RecordBase struct {
	ExecutionID string
	EntityID    string // keyword/campaign/product id, depending on kind

	ReasonCode   string
	ReasonDetail string

	Status RecommendationStatus

	CreatedAt  time.Time
	ApprovedAt *time.Time
	ApprovedBy string
	RejectedAt *time.Time
	RejectedBy string
	AppliedAt  *time.Time
	ApplyError string
}

// BidRecommendation is C5's per-keyword output record.
type BidRecommendation struct {
	RecordBase

	KeywordID  string
	CampaignID string
	ProductID  string

	InputSnapshot KeywordMetrics

	Action BidAction

	CurrentBid   int64
	RecommendedBid int64
	ChangeRate   float64

	Clipped    bool
	ClipReason string

	GuardrailFlags []string
}

// BudgetRecommendation is C9's per-campaign output record.
type BudgetRecommendation struct {
	RecordBase

	CampaignID string

	InputSnapshot BudgetMetrics

	Action BudgetAction

	CurrentBudget     int64
	RecommendedBudget int64

	Clipped    bool
	ClipReason string
}

// NegativeKeywordSuggestion is C10's per-cluster output record.
type NegativeKeywordSuggestion struct {
	RecordBase

	ProductID      string
	CanonicalQuery string
	Intent         IntentTag
	Phase          NegativePhase
	Verdict        NegativeVerdict

	ClusterClicks      int64
	ClusterConversions int64
	RequiredClicks      int64

	WhitelistOverride bool
}

// AutoExactPromotionSuggestion is the C10 companion output: a search term
// that earned promotion to its own exact-match keyword.
type AutoExactPromotionSuggestion struct {
	RecordBase

	ProductID     string
	SearchTerm    string
	SourceKeywordID string

	Clicks      int64
	Conversions int64
	ACOS        float64
}

// LifecycleTransitionRecord is C8's per-product output record.
type LifecycleTransitionRecord struct {
	RecordBase

	ProductID string

	CurrentStage     LifecycleStage
	RecommendedStage LifecycleStage
	ShouldTransition bool

	ExtensionMonthsGranted int
	ForceHarvest           bool
	Warnings               []string

	IsEmergencyExit bool
}

// BacktestExecution is C11's persisted run metadata.
type BacktestExecution struct {
	ExecutionID string

	StartDate   time.Time
	EndDate     time.Time
	Granularity string // DAILY or WEEKLY
	MarginRate  float64

	ASINFilter     []string
	CampaignFilter []string

	TotalDecisions   int
	CorrectDecisions int
	AccuracyRate     float64

	ActualACOS    float64
	SimulatedACOS float64
	ACOSDeltaPoints float64

	ActualSpend, SimulatedSpend float64
	SpendDelta                  float64

	ActualSales, SimulatedSales float64
	SalesDelta                  float64

	EstimatedProfitGain float64

	CreatedAt time.Time
	DurationMS int64
}

// BacktestDailyDetail is one daily (or weekly, when aggregated up) row of a
// backtest run.
type BacktestDailyDetail struct {
	ExecutionID string
	Date        time.Time

	ActualSpend, SimulatedSpend float64
	ActualSales, SimulatedSales float64
	ActualACOS, SimulatedACOS   float64

	MatchedDecisions int
	CorrectDecisions int
}
