package scheduler

import (
	"context"

	"github.com/mbicorp/adbid-engine/internal/orchestrator"
)

// bidEngineJob drives C5. Two schedules share it: a frequent "normal" cadence
// and a slower "smode" cadence. Each run uses the RunOptions it was
// registered with; cmd/server registers both with no product scope, so both
// evaluate every product. Phase-aware handling (S_PRE1/S_PRE2/S_FREEZE/
// S_NORMAL/S_FINAL/S_REVERT) comes from C2's invest-mode branch and is the
// same in either run — both schedules call the same orchestrator method.
type bidEngineJob struct {
	name string
	orc  *orchestrator.Orchestrator
	opts orchestrator.RunOptions
}

// NewBidEngineJob builds the cron job for a bid-engine run. name should be
// "bid-engine-normal" or "bid-engine-smode" to distinguish the two
// schedules in logs.
func NewBidEngineJob(name string, orc *orchestrator.Orchestrator, opts orchestrator.RunOptions) Job {
	return &bidEngineJob{name: name, orc: orc, opts: opts}
}

func (j *bidEngineJob) Name() string { return j.name }

func (j *bidEngineJob) Run() error {
	_, err := j.orc.RunBidEngine(context.Background(), j.opts)
	return err
}

// budgetOptimizationJob drives C9. The "placement-optimization" cron route
// (spec §6) reuses this job: placement-level spend reallocation is the
// campaign_budget_metrics view's RAS_BUDGET_CAP/OOS guardrail branch within
// the same engine, not a separate component.
type budgetOptimizationJob struct {
	name string
	orc  *orchestrator.Orchestrator
	opts orchestrator.RunOptions
}

func NewBudgetOptimizationJob(name string, orc *orchestrator.Orchestrator, opts orchestrator.RunOptions) Job {
	return &budgetOptimizationJob{name: name, orc: orc, opts: opts}
}

func (j *budgetOptimizationJob) Name() string { return j.name }

func (j *budgetOptimizationJob) Run() error {
	_, err := j.orc.RunBudgetEngine(context.Background(), j.opts)
	return err
}

// negativeJudgerJob drives C10, whose per-cluster companion rule also
// produces auto-exact promotion suggestions. Both the
// "auto-exact-promotion" and "auto-exact-shadow" cron routes, and the
// "keyword-discovery" route (new query clusters surface here before they
// earn a verdict), share this one job. Promotion suggestions are only
// persisted: AUTO_EXACT_APPLY_ENABLED is loaded into config.Config but no
// code reads it, and no code path sends a promotion to the apply sink.
type negativeJudgerJob struct {
	name string
	orc  *orchestrator.Orchestrator
	opts orchestrator.RunOptions
}

func NewNegativeJudgerJob(name string, orc *orchestrator.Orchestrator, opts orchestrator.RunOptions) Job {
	return &negativeJudgerJob{name: name, orc: orc, opts: opts}
}

func (j *negativeJudgerJob) Name() string { return j.name }

func (j *negativeJudgerJob) Run() error {
	_, err := j.orc.RunNegativeJudger(context.Background(), j.opts)
	return err
}

// lifecycleUpdateJob drives C6/C7/C8 for the /lifecycle/update route.
type lifecycleUpdateJob struct {
	name string
	orc  *orchestrator.Orchestrator
	opts orchestrator.RunOptions
}

func NewLifecycleUpdateJob(name string, orc *orchestrator.Orchestrator, opts orchestrator.RunOptions) Job {
	return &lifecycleUpdateJob{name: name, orc: orc, opts: opts}
}

func (j *lifecycleUpdateJob) Name() string { return j.name }

func (j *lifecycleUpdateJob) Run() error {
	_, err := j.orc.RunLifecycleUpdate(context.Background(), j.opts)
	return err
}

// backtestWeeklyJob drives C11 for the /backtest/weekly route: a rolling
// trailing-7-day window re-evaluated every week.
type backtestWeeklyJob struct {
	orc       *orchestrator.Orchestrator
	newParams func() orchestrator.BacktestParams
}

// NewBacktestWeeklyJob takes a params factory rather than a fixed
// BacktestParams so the trailing window is computed fresh at run time
// instead of being frozen at registration time.
func NewBacktestWeeklyJob(orc *orchestrator.Orchestrator, newParams func() orchestrator.BacktestParams) Job {
	return &backtestWeeklyJob{orc: orc, newParams: newParams}
}

func (j *backtestWeeklyJob) Name() string { return "backtest-weekly" }

func (j *backtestWeeklyJob) Run() error {
	_, err := j.orc.RunBacktest(context.Background(), j.newParams(), orchestrator.RunOptions{})
	return err
}
