package orchestrator

import (
	"context"

	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/lifecycle"
	"github.com/mbicorp/adbid-engine/internal/notify"
	"github.com/mbicorp/adbid-engine/internal/seo"
)

// RunLifecycleUpdate runs C6 (per-ASIN SEO rollup), C7 (launch-exit, only
// for products currently in a LAUNCH_* stage) and C8 (the state machine)
// for every loaded product, in that dependency order, and persists one
// LifecycleTransitionRecord per product.
func (o *Orchestrator) RunLifecycleUpdate(ctx context.Context, opts RunOptions) (notify.Summary, error) {
	executionID := newExecutionID()
	start := o.clock()

	var strategies map[string]domain.ProductStrategy
	var profits map[string][]domain.MonthlyProfit
	var seoScores map[string]domain.SeoScore
	var coreKeywords map[string][]seo.KeywordInput
	var lossBudgets map[string]domain.LossBudgetSummary

	grp := newLoadGroup(ctx, 4)
	grp.Go(func(ctx context.Context) (err error) {
		strategies, err = o.inputs.LoadProductStrategies(ctx)
		return err
	})
	grp.Go(func(ctx context.Context) (err error) {
		profits, err = o.inputs.LoadRecentMonthlyProfits(ctx, 12)
		return err
	})
	grp.Go(func(ctx context.Context) (err error) {
		seoScores, err = o.inputs.LoadLatestSeoScores(ctx)
		return err
	})
	grp.Go(func(ctx context.Context) (err error) {
		lossBudgets, err = o.inputs.LoadLossBudgets(ctx)
		return err
	})
	if err := grp.Wait(); err != nil {
		return notify.Summary{}, err
	}

	coreRows, err := o.inputs.LoadCoreKeywords(ctx)
	if err != nil {
		return notify.Summary{}, err
	}
	coreKeywords = make(map[string][]seo.KeywordInput, len(coreRows))
	for productID, rows := range coreRows {
		inputs := make([]seo.KeywordInput, 0, len(rows))
		for _, r := range rows {
			inputs = append(inputs, seo.KeywordInput{Config: r.Config, Summary: r.Summary})
		}
		coreKeywords[productID] = inputs
	}

	scope := toProductSet(opts.ScopeProductIDs)
	recs := make([]domain.LifecycleTransitionRecord, 0, len(strategies))

	for productID, strategy := range strategies {
		if len(scope) > 0 && !scope[productID] {
			continue
		}

		_, progress := seo.EvaluateASIN(coreKeywords[productID], o.seoEvalCfg)

		var launchExit *domain.LaunchExitDecision
		if strategy.Stage.IsLaunch() {
			lb := lossBudgets[productID]
			decision := seo.DecideLaunchExit(seo.LaunchExitInput{
				LossBudget:             lb,
				Progress:               progress,
				DaysSinceLaunch:        strategy.MonthsSinceLaunch(start) * 30,
				LaunchInvestUsageRatio: lb.LaunchInvestWindowUsageRatio,
			}, o.launchExitCfg)
			launchExit = &decision
		}

		in := lifecycle.Input{
			Strategy:      strategy,
			RecentProfits: profits[productID],
			Seo:           seoScores[productID],
			LaunchExit:    launchExit,
		}
		rec := lifecycle.Evaluate(in, o.lifecycleCfg)
		rec.ExecutionID = executionID
		rec.EntityID = productID
		rec.Status = domain.StatusPending
		rec.CreatedAt = start
		recs = append(recs, rec)
	}

	if !opts.DryRun {
		if err := o.recs.InsertLifecycleTransitions(ctx, recs); err != nil {
			return notify.Summary{}, err
		}
	}

	summary := notify.Summary{
		ExecutionID:  executionID,
		Engine:       "lifecycle",
		Mode:         string(o.cfg.BidEngineExecutionMode),
		DryRun:       opts.DryRun,
		TotalRecords: len(recs),
		ActionCounts: countStageTransitions(recs),
		StartedAt:    start,
		Duration:     o.clock().Sub(start),
	}
	o.notify(summary)
	return summary, nil
}

func countStageTransitions(recs []domain.LifecycleTransitionRecord) map[string]int {
	out := make(map[string]int, 4)
	for _, r := range recs {
		if r.ShouldTransition {
			out[string(r.RecommendedStage)]++
		} else {
			out["NO_CHANGE"]++
		}
	}
	return out
}

func toProductSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
