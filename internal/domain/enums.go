// Package domain holds the shared, immutable data model every engine reads:
// keyword/campaign/product snapshots and the recommendation records the
// orchestrator persists. Nothing in this package mutates after construction
// (see SPEC_FULL.md "Ownership & lifecycle").
//
// LifecycleStage and LaunchExitDecision live here specifically to break the
// cyclic reference between the lifecycle state machine (internal/lifecycle)
// and the SEO launch evaluator (internal/seo): the evaluator produces a
// LaunchExitDecision, the state machine consumes it, and neither package
// imports the other.
package domain

// PhaseTag is a keyword's sale-event phase.
type PhaseTag string

const (
	PhaseNormal  PhaseTag = "NORMAL"
	PhasePre1    PhaseTag = "S_PRE1"
	PhasePre2    PhaseTag = "S_PRE2"
	PhaseFreeze  PhaseTag = "S_FREEZE"
	PhaseSNormal PhaseTag = "S_NORMAL"
	PhaseFinal   PhaseTag = "S_FINAL"
	PhaseRevert  PhaseTag = "S_REVERT"
)

// IsSaleMode reports whether the phase belongs to an active sale event
// (anything other than plain NORMAL trading).
func (p PhaseTag) IsSaleMode() bool {
	return p != PhaseNormal
}

// BrandType classifies a keyword's relationship to the advertiser's own brand.
type BrandType string

const (
	BrandOwn   BrandType = "BRAND"
	Generic    BrandType = "GENERIC"
	Conquest   BrandType = "CONQUEST"
)

// KeywordRole is the strategic role assigned to a keyword.
type KeywordRole string

const (
	RoleCore          KeywordRole = "CORE"
	RoleSupport       KeywordRole = "SUPPORT"
	RoleExperiment    KeywordRole = "EXPERIMENT"
	RoleBrandOwn      KeywordRole = "BRAND_OWN"
	RoleBrandConquest KeywordRole = "BRAND_CONQUEST"
)

// BidAction is the closed set of actions the bid engine may emit (C2/C5).
type BidAction string

const (
	ActionStrongUp   BidAction = "STRONG_UP"
	ActionMildUp     BidAction = "MILD_UP"
	ActionKeep       BidAction = "KEEP"
	ActionMildDown   BidAction = "MILD_DOWN"
	ActionStrongDown BidAction = "STRONG_DOWN"
	ActionStop       BidAction = "STOP"
)

// Milder returns the next less aggressive action in the STOP -> KEEP
// downgrade chain used by the guardrail re-check (C3/C5).
func (a BidAction) Milder() BidAction {
	switch a {
	case ActionStop:
		return ActionStrongDown
	case ActionStrongDown:
		return ActionMildDown
	case ActionMildDown:
		return ActionKeep
	default:
		return ActionKeep
	}
}

// LifecycleStage is a product's lifecycle-management stage.
type LifecycleStage string

const (
	StageLaunchHard LifecycleStage = "LAUNCH_HARD"
	StageLaunchSoft LifecycleStage = "LAUNCH_SOFT"
	StageGrow       LifecycleStage = "GROW"
	StageHarvest    LifecycleStage = "HARVEST"
)

// IsLaunch reports whether the stage is one of the two launch stages —
// "invest mode" per the GLOSSARY.
func (s LifecycleStage) IsLaunch() bool {
	return s == StageLaunchHard || s == StageLaunchSoft
}

// Pattern returns the lowercase strategy-pattern attribute that must always
// agree with the stage (§3 invariant).
func (s LifecycleStage) Pattern() string {
	switch s {
	case StageLaunchHard:
		return "launch_hard"
	case StageLaunchSoft:
		return "launch_soft"
	case StageGrow:
		return "grow"
	case StageHarvest:
		return "harvest"
	default:
		return ""
	}
}

// SeoTrend is the direction of a product's SEO score over its trailing window.
type SeoTrend string

const (
	TrendUp      SeoTrend = "UP"
	TrendFlat    SeoTrend = "FLAT"
	TrendDown    SeoTrend = "DOWN"
	TrendUnknown SeoTrend = "UNKNOWN"
)

// RankZone buckets a product's organic-rank standing.
type RankZone string

const (
	ZoneTop      RankZone = "TOP_ZONE"
	ZoneMid      RankZone = "MID_ZONE"
	ZoneOutRange RankZone = "OUT_OF_RANGE"
	ZoneUnknown  RankZone = "UNKNOWN"
)

// KeywordTier is a core keyword's calibration tier (§4.6 dynamic thresholds).
type KeywordTier string

const (
	TierBig    KeywordTier = "BIG"
	TierMiddle KeywordTier = "MIDDLE"
	TierBrand  KeywordTier = "BRAND"
)

// VolumeBucket classifies a core keyword's search volume relative to the
// product's median core-keyword volume.
type VolumeBucket string

const (
	VolumeHigh VolumeBucket = "HIGH"
	VolumeMid  VolumeBucket = "MID"
	VolumeLow  VolumeBucket = "LOW"
)

// SeoKeywordStatus is the per-keyword SEO launch-progress classification (C6).
type SeoKeywordStatus string

const (
	SeoAchieved SeoKeywordStatus = "ACHIEVED"
	SeoGaveUp   SeoKeywordStatus = "GAVE_UP"
	SeoActive   SeoKeywordStatus = "ACTIVE"
)

// InvestmentState is a product's loss-budget consumption zone.
type InvestmentState string

const (
	InvestSafe    InvestmentState = "SAFE"
	InvestWarning InvestmentState = "WARNING"
	InvestLimit   InvestmentState = "LIMIT"
	InvestBreach  InvestmentState = "BREACH"
)

// BudgetAction is the closed set of actions the budget engine may emit (C9).
type BudgetAction string

const (
	BudgetBoost BudgetAction = "BOOST"
	BudgetKeep  BudgetAction = "KEEP"
	BudgetCurb  BudgetAction = "CURB"
)

// RecommendationStatus is the mutable lifecycle of a persisted recommendation.
type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "PENDING"
	StatusApproved RecommendationStatus = "APPROVED"
	StatusRejected RecommendationStatus = "REJECTED"
	StatusApplied  RecommendationStatus = "APPLIED"
)

// NegativePhase is a query-cluster's maturity phase for the negative-keyword
// judger (C10).
type NegativePhase string

const (
	PhaseLearning       NegativePhase = "LEARNING"
	PhaseLimitedAction  NegativePhase = "LIMITED_ACTION"
	PhaseStopCandidate  NegativePhase = "STOP_CANDIDATE"
)

// IntentTag is the derived query-cluster intent, used to build the cluster key.
type IntentTag string

const (
	IntentChild   IntentTag = "child"
	IntentAdult   IntentTag = "adult"
	IntentConcern IntentTag = "concern"
	IntentInfo    IntentTag = "info"
	IntentGeneric IntentTag = "generic"
)

// NegativeVerdict is the closed outcome set for a query cluster (C10).
type NegativeVerdict string

const (
	VerdictNone         NegativeVerdict = "NONE"
	VerdictBidDown      NegativeVerdict = "BID_DOWN"
	VerdictManualReview NegativeVerdict = "MANUAL_REVIEW"
	VerdictStopAndNeg   NegativeVerdict = "STOP_AND_NEG"
)

// LaunchExitReasonCode is the closed reason-code set the launch-exit decider
// may emit (C7). LOSS_BUDGET_OK is included per the Open Question
// resolution in DESIGN.md: the rewrite resolves the ambiguity by adding it
// to the closed set rather than leaving a dangling test-only reference.
type LaunchExitReasonCode string

const (
	ReasonEmergencyLossBudgetBreach LaunchExitReasonCode = "EMERGENCY_LOSS_BUDGET_BREACH"
	ReasonEmergencyRatioStage       LaunchExitReasonCode = "EMERGENCY_RATIO_STAGE_EXCEEDED"
	ReasonEmergencyInvestCritical   LaunchExitReasonCode = "EMERGENCY_INVEST_USAGE_CRITICAL"
	ReasonNormalCompletion          LaunchExitReasonCode = "NORMAL_COMPLETION_AND_TRIAL"
	ReasonEarlyWarningPartial       LaunchExitReasonCode = "EARLY_EXIT_WARNING_PARTIAL"
	ReasonContinueLaunch            LaunchExitReasonCode = "CONTINUE_LAUNCH"
	ReasonLossBudgetOK              LaunchExitReasonCode = "LOSS_BUDGET_OK"
)

// LaunchExitDecision is the shared type produced by internal/seo's launch-exit
// decider (C7) and consumed by internal/lifecycle's state machine (C8). It
// lives in internal/domain so neither package imports the other (§9).
type LaunchExitDecision struct {
	ShouldExit        bool
	IsEmergencyExit   bool
	IsEarlyExit       bool
	RecommendedStage  LifecycleStage
	ReasonCode        LaunchExitReasonCode
	ReasonDetail      string
	EffectiveVolumeScale     float64
	EffectiveClickThreshold  float64
	EffectiveOrderThreshold  float64
}
