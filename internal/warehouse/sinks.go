package warehouse

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

// RecommendationRepository is the append-only sink for every recommendation
// kind plus the optimistic status transitions (§5 "Shared-resource
// policy"). One struct covers all five kinds, mirroring the teacher's
// planning.RecommendationRepository covering one table with CreateOrUpdate
// + status-transition helpers.
type RecommendationRepository struct {
	db *DB
}

// NewRecommendationRepository builds a RecommendationRepository.
func NewRecommendationRepository(db *DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// InsertBidRecommendations appends a batch in one transaction, the "one
// append" ordering guarantee of §5.
func (r *RecommendationRepository) InsertBidRecommendations(ctx context.Context, recs []domain.BidRecommendation) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "bid_recommendations", Cause: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bid_recommendations (
			execution_id, keyword_id, campaign_id, product_id, action,
			current_bid, recommended_bid, change_rate, clipped, clip_reason,
			reason_code, reason_detail, guardrail_flags, input_snapshot_json,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "bid_recommendations", Cause: err}
	}
	defer stmt.Close()

	for _, rec := range recs {
		snapshot, err := json.Marshal(rec.InputSnapshot)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			rec.ExecutionID, rec.KeywordID, rec.CampaignID, rec.ProductID, string(rec.Action),
			rec.CurrentBid, rec.RecommendedBid, rec.ChangeRate, rec.Clipped, rec.ClipReason,
			rec.ReasonCode, rec.ReasonDetail, strings.Join(rec.GuardrailFlags, ","), snapshot,
			string(rec.Status), rec.CreatedAt,
		)
		if err != nil {
			return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "bid_recommendations", Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "bid_recommendations", Cause: err}
	}
	return nil
}

// InsertBudgetRecommendations appends a batch of budget recommendations.
func (r *RecommendationRepository) InsertBudgetRecommendations(ctx context.Context, recs []domain.BudgetRecommendation) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "budget_recommendations", Cause: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO budget_recommendations (
			execution_id, campaign_id, action, current_budget, recommended_budget,
			clipped, clip_reason, reason_code, reason_detail, input_snapshot_json,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "budget_recommendations", Cause: err}
	}
	defer stmt.Close()

	for _, rec := range recs {
		snapshot, err := json.Marshal(rec.InputSnapshot)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			rec.ExecutionID, rec.CampaignID, string(rec.Action), rec.CurrentBudget, rec.RecommendedBudget,
			rec.Clipped, rec.ClipReason, rec.ReasonCode, rec.ReasonDetail, snapshot,
			string(rec.Status), rec.CreatedAt,
		)
		if err != nil {
			return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "budget_recommendations", Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "budget_recommendations", Cause: err}
	}
	return nil
}

// InsertNegativeSuggestions appends a batch of negative-keyword suggestions.
func (r *RecommendationRepository) InsertNegativeSuggestions(ctx context.Context, recs []domain.NegativeKeywordSuggestion) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "negative_keyword_suggestions", Cause: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO negative_keyword_suggestions (
			execution_id, product_id, canonical_query, intent, phase, verdict,
			cluster_clicks, cluster_conversions, required_clicks, whitelist_override,
			reason_code, reason_detail, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "negative_keyword_suggestions", Cause: err}
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err = stmt.ExecContext(ctx,
			rec.ExecutionID, rec.ProductID, rec.CanonicalQuery, string(rec.Intent), string(rec.Phase), string(rec.Verdict),
			rec.ClusterClicks, rec.ClusterConversions, rec.RequiredClicks, rec.WhitelistOverride,
			rec.ReasonCode, rec.ReasonDetail, string(rec.Status), rec.CreatedAt,
		)
		if err != nil {
			return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "negative_keyword_suggestions", Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "negative_keyword_suggestions", Cause: err}
	}
	return nil
}

// InsertAutoExactPromotions appends a batch of auto-exact promotion suggestions.
func (r *RecommendationRepository) InsertAutoExactPromotions(ctx context.Context, recs []domain.AutoExactPromotionSuggestion) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "auto_exact_promotion_suggestions", Cause: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO auto_exact_promotion_suggestions (
			execution_id, product_id, search_term, source_keyword_id, clicks, conversions, acos,
			reason_code, reason_detail, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "auto_exact_promotion_suggestions", Cause: err}
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err = stmt.ExecContext(ctx,
			rec.ExecutionID, rec.ProductID, rec.SearchTerm, rec.SourceKeywordID, rec.Clicks, rec.Conversions, rec.ACOS,
			rec.ReasonCode, rec.ReasonDetail, string(rec.Status), rec.CreatedAt,
		)
		if err != nil {
			return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "auto_exact_promotion_suggestions", Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "auto_exact_promotion_suggestions", Cause: err}
	}
	return nil
}

// InsertLifecycleTransitions appends a batch of lifecycle transition records.
func (r *RecommendationRepository) InsertLifecycleTransitions(ctx context.Context, recs []domain.LifecycleTransitionRecord) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "lifecycle_transitions", Cause: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lifecycle_transitions (
			execution_id, product_id, current_stage, recommended_stage, should_transition,
			extension_months_granted, force_harvest, is_emergency_exit, warnings_json,
			reason_code, reason_detail, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "lifecycle_transitions", Cause: err}
	}
	defer stmt.Close()

	for _, rec := range recs {
		warnings, err := json.Marshal(rec.Warnings)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			rec.ExecutionID, rec.ProductID, string(rec.CurrentStage), string(rec.RecommendedStage), rec.ShouldTransition,
			rec.ExtensionMonthsGranted, rec.ForceHarvest, rec.IsEmergencyExit, warnings,
			rec.ReasonCode, rec.ReasonDetail, string(rec.Status), rec.CreatedAt,
		)
		if err != nil {
			return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "lifecycle_transitions", Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "lifecycle_transitions", Cause: err}
	}
	return nil
}

// casTables maps an admin-facing "kind" string to the table holding it, used
// by the approve/reject/apply HTTP handlers so one handler body can serve
// all four recommendation kinds.
var casTables = map[string]string{
	"bid":       "bid_recommendations",
	"budget":    "budget_recommendations",
	"negative":  "negative_keyword_suggestions",
	"auto-exact": "auto_exact_promotion_suggestions",
	"lifecycle": "lifecycle_transitions",
}

// UpdateStatusCAS performs the optimistic compare-and-set the design notes
// require: `UPDATE ... WHERE status = @expectedPrior`. It returns the number
// of rows affected - 0 means another writer already moved the row, which the
// caller surfaces as a 409 rather than silently succeeding.
func (r *RecommendationRepository) UpdateStatusCAS(ctx context.Context, kind, idColumn string, id int64, expectedPrior, newStatus domain.RecommendationStatus, actor string, now time.Time) (int64, error) {
	table, ok := casTables[kind]
	if !ok {
		return 0, &engineerr.ValidationError{Fields: []engineerr.FieldError{{Field: "kind", Message: "unknown recommendation kind: " + kind}}}
	}

	var setClause string
	switch newStatus {
	case domain.StatusApproved:
		setClause = "status = ?, approved_at = ?, approved_by = ?"
	case domain.StatusRejected:
		setClause = "status = ?, rejected_at = ?, rejected_by = ?"
	case domain.StatusApplied:
		setClause = "status = ?, applied_at = ?, apply_error = ''"
	default:
		setClause = "status = ?"
	}

	query := "UPDATE " + table + " SET " + setClause + " WHERE id = ? AND status = ?"
	var args []any
	switch newStatus {
	case domain.StatusApproved, domain.StatusRejected:
		args = []any{string(newStatus), now, actor, id, string(expectedPrior)}
	case domain.StatusApplied:
		args = []any{string(newStatus), now, id, string(expectedPrior)}
	default:
		args = []any{string(newStatus), id, string(expectedPrior)}
	}

	result, err := r.db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: table, Cause: err}
	}
	return result.RowsAffected()
}

// RecordApplyError writes a terminal apply failure back onto a row without
// touching its status (§5: apply failures are per-record, never fail the run).
func (r *RecommendationRepository) RecordApplyError(ctx context.Context, kind string, id int64, errMsg string) error {
	table, ok := casTables[kind]
	if !ok {
		return &engineerr.ValidationError{Fields: []engineerr.FieldError{{Field: "kind", Message: "unknown recommendation kind: " + kind}}}
	}
	_, err := r.db.conn.ExecContext(ctx, "UPDATE "+table+" SET apply_error = ? WHERE id = ?", errMsg, id)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: table, Cause: err}
	}
	return nil
}

// PendingBidRow is a bid_recommendations row as listed by the admin surface.
type PendingBidRow struct {
	ID         int64
	KeywordID  string
	Action     string
	ReasonCode string
	Status     string
	CreatedAt  time.Time
}

// ListPendingBidRecommendations paginates bid_recommendations ordered newest
// first, the §5 "rank by (started_at DESC, execution_id DESC)" rule applied
// at the per-record level via created_at/id.
func (r *RecommendationRepository) ListPendingBidRecommendations(ctx context.Context, limit, offset int) ([]PendingBidRow, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, keyword_id, action, reason_code, status, created_at
		FROM bid_recommendations
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "bid_recommendations", Cause: err}
	}
	defer rows.Close()

	out := make([]PendingBidRow, 0, limit)
	for rows.Next() {
		var row PendingBidRow
		if err := rows.Scan(&row.ID, &row.KeywordID, &row.Action, &row.ReasonCode, &row.Status, &row.CreatedAt); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "bid_recommendations", Cause: err}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// NegativeSuggestionRow is a negative_keyword_suggestions row as listed by
// the admin surface.
type NegativeSuggestionRow struct {
	ID             int64
	ProductID      string
	CanonicalQuery string
	Verdict        string
	Status         string
	CreatedAt      time.Time
}

// ListNegativeSuggestions paginates negative_keyword_suggestions, optionally
// filtered to one verdict (empty = no filter).
func (r *RecommendationRepository) ListNegativeSuggestions(ctx context.Context, verdict string, limit, offset int) ([]NegativeSuggestionRow, error) {
	query := `SELECT id, product_id, canonical_query, verdict, status, created_at FROM negative_keyword_suggestions`
	args := []any{}
	if verdict != "" {
		query += ` WHERE verdict = ?`
		args = append(args, verdict)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "negative_keyword_suggestions", Cause: err}
	}
	defer rows.Close()

	out := make([]NegativeSuggestionRow, 0, limit)
	for rows.Next() {
		var row NegativeSuggestionRow
		if err := rows.Scan(&row.ID, &row.ProductID, &row.CanonicalQuery, &row.Verdict, &row.Status, &row.CreatedAt); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "negative_keyword_suggestions", Cause: err}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListApprovedByKind returns the ids + entity ids of APPROVED rows for one
// recommendation kind, the queue the orchestrator's apply fan-out drains.
func (r *RecommendationRepository) ListApprovedByKind(ctx context.Context, kind string) ([]int64, []string, error) {
	table, ok := casTables[kind]
	if !ok {
		return nil, nil, &engineerr.ValidationError{Fields: []engineerr.FieldError{{Field: "kind", Message: "unknown recommendation kind: " + kind}}}
	}
	idCol := entityIDColumn(kind)

	rows, err := r.db.conn.QueryContext(ctx, "SELECT id, "+idCol+" FROM "+table+" WHERE status = ?", string(domain.StatusApproved))
	if err != nil {
		return nil, nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: table, Cause: err}
	}
	defer rows.Close()

	var ids []int64
	var entityIDs []string
	for rows.Next() {
		var id int64
		var entityID string
		if err := rows.Scan(&id, &entityID); err != nil {
			return nil, nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: table, Cause: err}
		}
		ids = append(ids, id)
		entityIDs = append(entityIDs, entityID)
	}
	return ids, entityIDs, rows.Err()
}

// ApprovedBid is one APPROVED bid_recommendations row with the fields the
// apply sink needs to replay the decision against the ad platform.
type ApprovedBid struct {
	ID             int64
	KeywordID      string
	RecommendedBid int64
}

// ListApprovedBids returns every APPROVED bid recommendation, the queue
// the orchestrator's bid-apply fan-out drains.
func (r *RecommendationRepository) ListApprovedBids(ctx context.Context) ([]ApprovedBid, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, keyword_id, recommended_bid FROM bid_recommendations WHERE status = ?
	`, string(domain.StatusApproved))
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "bid_recommendations", Cause: err}
	}
	defer rows.Close()

	var out []ApprovedBid
	for rows.Next() {
		var row ApprovedBid
		if err := rows.Scan(&row.ID, &row.KeywordID, &row.RecommendedBid); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "bid_recommendations", Cause: err}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ApprovedBudget is one APPROVED budget_recommendations row.
type ApprovedBudget struct {
	ID                int64
	CampaignID        string
	RecommendedBudget int64
}

// ListApprovedBudgets returns every APPROVED budget recommendation.
func (r *RecommendationRepository) ListApprovedBudgets(ctx context.Context) ([]ApprovedBudget, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, campaign_id, recommended_budget FROM budget_recommendations WHERE status = ?
	`, string(domain.StatusApproved))
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "budget_recommendations", Cause: err}
	}
	defer rows.Close()

	var out []ApprovedBudget
	for rows.Next() {
		var row ApprovedBudget
		if err := rows.Scan(&row.ID, &row.CampaignID, &row.RecommendedBudget); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "budget_recommendations", Cause: err}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ApprovedNegative is one APPROVED negative_keyword_suggestions row.
type ApprovedNegative struct {
	ID             int64
	ProductID      string
	CanonicalQuery string
}

// ListApprovedNegatives returns every APPROVED negative-keyword suggestion
// whose verdict actually calls for an addition (STOP_AND_NEG).
func (r *RecommendationRepository) ListApprovedNegatives(ctx context.Context) ([]ApprovedNegative, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, product_id, canonical_query FROM negative_keyword_suggestions
		WHERE status = ? AND verdict = ?
	`, string(domain.StatusApproved), string(domain.VerdictStopAndNeg))
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "negative_keyword_suggestions", Cause: err}
	}
	defer rows.Close()

	var out []ApprovedNegative
	for rows.Next() {
		var row ApprovedNegative
		if err := rows.Scan(&row.ID, &row.ProductID, &row.CanonicalQuery); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "negative_keyword_suggestions", Cause: err}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func entityIDColumn(kind string) string {
	switch kind {
	case "bid":
		return "keyword_id"
	case "budget":
		return "campaign_id"
	case "negative", "auto-exact", "lifecycle":
		return "product_id"
	default:
		return "id"
	}
}
