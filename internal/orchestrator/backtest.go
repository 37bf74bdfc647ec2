package orchestrator

import (
	"context"
	"time"

	"github.com/mbicorp/adbid-engine/internal/backtest"
	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/notify"
)

// BacktestParams is the caller-supplied scope for one C11 run.
type BacktestParams struct {
	Start, End     time.Time
	Granularity    string // DAILY or WEEKLY
	MarginRate     float64
	ASINFilter     []string
	CampaignFilter []string
}

// RunBacktest loads stored recommendations and actual outcomes in the
// requested window, runs C11, and persists the resulting execution plus its
// daily detail series.
func (o *Orchestrator) RunBacktest(ctx context.Context, params BacktestParams, opts RunOptions) (domain.BacktestExecution, error) {
	executionID := newExecutionID()

	var recs []backtest.StoredRecommendation
	var actuals []backtest.ActualOutcome

	grp := newLoadGroup(ctx, 2)
	grp.Go(func(ctx context.Context) (err error) {
		recs, err = o.backtests.LoadStoredRecommendations(ctx, params.Start, params.End, params.CampaignFilter)
		return err
	})
	grp.Go(func(ctx context.Context) (err error) {
		actuals, err = o.backtests.LoadActualOutcomes(ctx, params.Start, params.End)
		return err
	})
	if err := grp.Wait(); err != nil {
		return domain.BacktestExecution{}, err
	}

	req := backtest.Request{
		ExecutionID:    executionID,
		Start:          params.Start,
		End:            params.End,
		Granularity:    params.Granularity,
		MarginRate:     params.MarginRate,
		ASINFilter:     params.ASINFilter,
		CampaignFilter: params.CampaignFilter,
	}
	result, details := backtest.Run(req, recs, actuals)

	if !opts.DryRun {
		if err := o.backtests.InsertExecution(ctx, result, details); err != nil {
			return domain.BacktestExecution{}, err
		}
	}

	o.notify(notify.Summary{
		ExecutionID:  executionID,
		Engine:       "backtest",
		Mode:         string(o.cfg.BidEngineExecutionMode),
		DryRun:       opts.DryRun,
		TotalRecords: result.TotalDecisions,
		ActionCounts: map[string]int{"correct": result.CorrectDecisions, "total": result.TotalDecisions},
		StartedAt:    result.CreatedAt,
		Duration:     time.Duration(result.DurationMS) * time.Millisecond,
	})

	return result, nil
}
