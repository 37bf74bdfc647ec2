package orchestrator

import (
	"context"
	"strings"

	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/negative"
	"github.com/mbicorp/adbid-engine/internal/notify"
)

// RunNegativeJudger runs C10 over every loaded search-term cluster,
// producing a negative-keyword verdict for each and, for clusters that did
// not earn STOP_AND_NEG, evaluating the auto-exact promotion companion
// rule.
func (o *Orchestrator) RunNegativeJudger(ctx context.Context, opts RunOptions) (notify.Summary, error) {
	executionID := newExecutionID()
	start := o.clock()

	clusters, err := o.searchTerms.LoadClusters(ctx, opts.ScopeProductIDs)
	if err != nil {
		return notify.Summary{}, err
	}

	cacheKey := "negative:" + strings.Join(opts.ScopeProductIDs, ",")
	isRerun := false
	if cachedID, hit, err := o.snapshots.lookup(cacheKey, clusters); err != nil {
		o.log.Warn().Err(err).Msg("snapshot cache lookup failed, proceeding as a fresh run")
	} else if hit {
		executionID = cachedID
		isRerun = true
	}

	suggestions := make([]domain.NegativeKeywordSuggestion, 0, len(clusters))
	var promotions []domain.AutoExactPromotionSuggestion

	for _, c := range clusters {
		sug := negative.Judge(c.Metrics, c.Whitelist, o.negCfg)
		sug.ExecutionID = executionID
		sug.CreatedAt = start
		suggestions = append(suggestions, sug)

		if sug.Verdict != domain.VerdictStopAndNeg {
			if promo := negative.EvaluatePromotion(c.Metrics, c.SearchTerm, c.SourceKeywordID, o.autoExactCfg); promo != nil {
				promo.ExecutionID = executionID
				promo.CreatedAt = start
				promotions = append(promotions, *promo)
			}
		}
	}

	if !opts.DryRun && !isRerun {
		if err := o.recs.InsertNegativeSuggestions(ctx, suggestions); err != nil {
			return notify.Summary{}, err
		}
		if len(promotions) > 0 {
			if err := o.recs.InsertAutoExactPromotions(ctx, promotions); err != nil {
				return notify.Summary{}, err
			}
		}
	}
	if err := o.snapshots.remember(cacheKey, clusters, executionID); err != nil {
		o.log.Warn().Err(err).Msg("snapshot cache remember failed")
	}

	actionCounts := countNegativeVerdicts(suggestions)
	actionCounts["AUTO_EXACT_PROMOTION"] = len(promotions)

	summary := notify.Summary{
		ExecutionID:  executionID,
		Engine:       "negative",
		Mode:         string(o.cfg.BidEngineExecutionMode),
		DryRun:       opts.DryRun,
		TotalRecords: len(suggestions) + len(promotions),
		ActionCounts: actionCounts,
		Cached:       isRerun,
		StartedAt:    start,
		Duration:     o.clock().Sub(start),
	}
	o.notify(summary)
	return summary, nil
}

func countNegativeVerdicts(suggestions []domain.NegativeKeywordSuggestion) map[string]int {
	out := make(map[string]int, 5)
	for _, s := range suggestions {
		out[string(s.Verdict)]++
	}
	return out
}

// ApplyApprovedNegatives drains every APPROVED negative suggestion through
// the apply sink. Gated by NegativeApplyEnabled rather than the bid
// engine's execution mode, per §6's separate env var for this operation.
func (o *Orchestrator) ApplyApprovedNegatives(ctx context.Context, executionID string) (applied, failed int, err error) {
	if !o.cfg.NegativeApplyEnabled || o.applySink == nil {
		return 0, 0, nil
	}

	approved, err := o.recs.ListApprovedNegatives(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := o.clock()
	for _, a := range approved {
		result := o.applySink.AddNegative(ctx, executionID, a.ProductID, a.CanonicalQuery, "NEGATIVE_EXACT", now)
		if result.Err != nil {
			failed++
			o.recordApplyFailure(ctx, "negative", a.ID, result.Err.Error())
			continue
		}
		if _, casErr := o.recs.UpdateStatusCAS(ctx, "negative", "id", a.ID, domain.StatusApproved, domain.StatusApplied, "", now); casErr != nil {
			o.log.Warn().Err(casErr).Int64("id", a.ID).Msg("negative applied but status CAS failed")
			continue
		}
		applied++
	}
	return applied, failed, nil
}
