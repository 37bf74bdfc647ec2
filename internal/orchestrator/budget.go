package orchestrator

import (
	"context"

	"github.com/mbicorp/adbid-engine/internal/budget"
	"github.com/mbicorp/adbid-engine/internal/config"
	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/notify"
)

// RunBudgetEngine runs C9 over every loaded campaign_budget_metrics row.
func (o *Orchestrator) RunBudgetEngine(ctx context.Context, opts RunOptions) (notify.Summary, error) {
	executionID := newExecutionID()
	start := o.clock()

	metrics, err := o.inputs.LoadBudgetMetrics(ctx)
	if err != nil {
		return notify.Summary{}, err
	}

	cacheKey := "budget"
	isRerun := false
	if cachedID, hit, err := o.snapshots.lookup(cacheKey, metrics); err != nil {
		o.log.Warn().Err(err).Msg("snapshot cache lookup failed, proceeding as a fresh run")
	} else if hit {
		executionID = cachedID
		isRerun = true
	}

	recs := make([]domain.BudgetRecommendation, 0, len(metrics))
	for _, m := range metrics {
		rec := budget.Evaluate(executionID, m, o.budgetCfg)
		rec.CreatedAt = start
		recs = append(recs, rec)
	}

	if !opts.DryRun && !isRerun {
		if err := o.recs.InsertBudgetRecommendations(ctx, recs); err != nil {
			return notify.Summary{}, err
		}
	}
	if err := o.snapshots.remember(cacheKey, metrics, executionID); err != nil {
		o.log.Warn().Err(err).Msg("snapshot cache remember failed")
	}

	summary := notify.Summary{
		ExecutionID:  executionID,
		Engine:       "budget",
		Mode:         string(o.cfg.BidEngineExecutionMode),
		DryRun:       opts.DryRun,
		TotalRecords: len(recs),
		ActionCounts: countBudgetActions(recs),
		Cached:       isRerun,
		StartedAt:    start,
		Duration:     o.clock().Sub(start),
	}
	o.notify(summary)
	return summary, nil
}

func countBudgetActions(recs []domain.BudgetRecommendation) map[string]int {
	out := make(map[string]int, 3)
	for _, r := range recs {
		out[string(r.Action)]++
	}
	return out
}

// ApplyApprovedBudgets drains every APPROVED budget recommendation through
// the apply sink, gated the same way bid apply is (APPLY mode only).
func (o *Orchestrator) ApplyApprovedBudgets(ctx context.Context, executionID string) (applied, failed int, err error) {
	if o.cfg.BidEngineExecutionMode != config.ModeApply || o.applySink == nil {
		return 0, 0, nil
	}

	approved, err := o.recs.ListApprovedBudgets(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := o.clock()
	for _, a := range approved {
		result := o.applySink.SetBudget(ctx, executionID, a.CampaignID, a.RecommendedBudget, now)
		if result.Err != nil {
			failed++
			o.recordApplyFailure(ctx, "budget", a.ID, result.Err.Error())
			continue
		}
		if _, casErr := o.recs.UpdateStatusCAS(ctx, "budget", "id", a.ID, domain.StatusApproved, domain.StatusApplied, "", now); casErr != nil {
			o.log.Warn().Err(casErr).Int64("id", a.ID).Msg("budget applied but status CAS failed")
			continue
		}
		applied++
	}
	return applied, failed, nil
}
