package orchestrator

import (
	"context"
	"strings"

	"github.com/mbicorp/adbid-engine/internal/bid"
	"github.com/mbicorp/adbid-engine/internal/config"
	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/notify"
)

// RunBidEngine runs C5 end to end: load, decide, persist, summarize. It
// never returns an error for per-keyword failures (those are folded into
// KEEP fallbacks by the engine itself); it returns an error only for a
// warehouse read/write failure, which aborts the run entirely.
func (o *Orchestrator) RunBidEngine(ctx context.Context, opts RunOptions) (notify.Summary, error) {
	executionID := newExecutionID()
	start := o.clock()

	var metrics []domain.KeywordMetrics
	var strategies map[string]domain.ProductStrategy
	var lossBudgets map[string]domain.LossBudgetSummary

	grp := newLoadGroup(ctx, 3)
	grp.Go(func(ctx context.Context) (err error) {
		metrics, err = o.inputs.LoadKeywordMetrics(ctx, opts.ScopeProductIDs)
		return err
	})
	grp.Go(func(ctx context.Context) (err error) {
		strategies, err = o.inputs.LoadProductStrategies(ctx)
		return err
	})
	grp.Go(func(ctx context.Context) (err error) {
		lossBudgets, err = o.inputs.LoadLossBudgets(ctx)
		return err
	})
	if err := grp.Wait(); err != nil {
		return notify.Summary{}, err
	}

	snapshot := bidSnapshot{Metrics: metrics, Strategies: strategies, LossBudgets: lossBudgets}
	cacheKey := "bid:" + strings.Join(opts.ScopeProductIDs, ",")
	isRerun := false
	if cachedID, hit, err := o.snapshots.lookup(cacheKey, snapshot); err != nil {
		o.log.Warn().Err(err).Msg("snapshot cache lookup failed, proceeding as a fresh run")
	} else if hit {
		executionID = cachedID
		isRerun = true
	}

	batch := bid.Batch{
		ExecutionID: executionID,
		AsOf:        start,
		Metrics:     metrics,
		Strategies:  strategies,
		LossBudgets: lossBudgets,
	}
	recs := o.bidEngine.Run(batch)

	// An identical snapshot already persisted under this execution id; skip
	// writing duplicate rows, but still report the (deterministic) result.
	if !opts.DryRun && !isRerun {
		if err := o.recs.InsertBidRecommendations(ctx, recs); err != nil {
			return notify.Summary{}, err
		}
	}
	if err := o.snapshots.remember(cacheKey, snapshot, executionID); err != nil {
		o.log.Warn().Err(err).Msg("snapshot cache remember failed")
	}

	summary := notify.Summary{
		ExecutionID:  executionID,
		Engine:       "bid",
		Mode:         string(o.cfg.BidEngineExecutionMode),
		DryRun:       opts.DryRun,
		TotalRecords: len(recs),
		ActionCounts: countBidActions(recs),
		Cached:       isRerun,
		StartedAt:    start,
		Duration:     o.clock().Sub(start),
	}
	o.notify(summary)
	return summary, nil
}

// bidSnapshot is the joined per-run input snapshot for the bid engine,
// the payload msgpack-encoded and hashed by the snapshot cache.
type bidSnapshot struct {
	Metrics     []domain.KeywordMetrics
	Strategies  map[string]domain.ProductStrategy
	LossBudgets map[string]domain.LossBudgetSummary
}

func countBidActions(recs []domain.BidRecommendation) map[string]int {
	out := make(map[string]int, 5)
	for _, r := range recs {
		out[string(r.Action)]++
	}
	return out
}

// ApplyApprovedBids drains every APPROVED bid recommendation through the
// apply sink. It returns at once, applying nothing, unless
// BidEngineExecutionMode is APPLY and an apply sink is wired, so a SHADOW
// deployment never reaches the sink.
func (o *Orchestrator) ApplyApprovedBids(ctx context.Context, executionID string) (applied, failed int, err error) {
	if o.cfg.BidEngineExecutionMode != config.ModeApply || o.applySink == nil {
		return 0, 0, nil
	}

	approved, err := o.recs.ListApprovedBids(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := o.clock()
	for _, a := range approved {
		result := o.applySink.SetBid(ctx, executionID, a.KeywordID, a.RecommendedBid, now)
		if result.Err != nil {
			failed++
			o.recordApplyFailure(ctx, "bid", a.ID, result.Err.Error())
			continue
		}
		if _, casErr := o.recs.UpdateStatusCAS(ctx, "bid", "id", a.ID, domain.StatusApproved, domain.StatusApplied, "", now); casErr != nil {
			o.log.Warn().Err(casErr).Int64("id", a.ID).Msg("bid applied but status CAS failed")
			continue
		}
		applied++
	}
	return applied, failed, nil
}

func (o *Orchestrator) recordApplyFailure(ctx context.Context, kind string, id int64, errMsg string) {
	if err := o.recs.RecordApplyError(ctx, kind, id, errMsg); err != nil {
		o.log.Error().Err(err).Int64("id", id).Str("kind", kind).Msg("failed to record apply error")
	}
}
