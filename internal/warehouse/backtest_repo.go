package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mbicorp/adbid-engine/internal/backtest"
	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

// BacktestRepository persists backtest runs and loads the historical data C11
// replays: stored bid recommendations joined against recorded actual outcomes.
type BacktestRepository struct {
	db *DB
}

// NewBacktestRepository builds a BacktestRepository.
func NewBacktestRepository(db *DB) *BacktestRepository {
	return &BacktestRepository{db: db}
}

// LoadStoredRecommendations returns every bid recommendation whose keyword
// falls in the given date range, scoped to the optional campaign filter.
func (r *BacktestRepository) LoadStoredRecommendations(ctx context.Context, start, end time.Time, campaignFilter []string) ([]backtest.StoredRecommendation, error) {
	query := `
		SELECT keyword_id, created_at, recommended_bid, action
		FROM bid_recommendations
		WHERE created_at >= ? AND created_at < ?
	`
	args := []any{start, end}
	if len(campaignFilter) > 0 {
		placeholders, filterArgs := inClause(campaignFilter)
		query += " AND campaign_id IN (" + placeholders + ")"
		args = append(args, filterArgs...)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "bid_recommendations", Cause: err}
	}
	defer rows.Close()

	var out []backtest.StoredRecommendation
	for rows.Next() {
		var rec backtest.StoredRecommendation
		var action string
		if err := rows.Scan(&rec.KeywordID, &rec.Date, &rec.RecommendedBid, &action); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "bid_recommendations", Cause: err}
		}
		rec.Action = domain.BidAction(action)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LoadActualOutcomes returns recorded keyword×day outcomes in the date range.
func (r *BacktestRepository) LoadActualOutcomes(ctx context.Context, start, end time.Time) ([]backtest.ActualOutcome, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT keyword_id, date, snapshot_json FROM keyword_daily_outcomes
		WHERE date >= ? AND date < ?
	`, start, end)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "keyword_daily_outcomes", Cause: err}
	}
	defer rows.Close()

	var out []backtest.ActualOutcome
	for rows.Next() {
		var keywordID string
		var date time.Time
		var snapshot []byte
		if err := rows.Scan(&keywordID, &date, &snapshot); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "keyword_daily_outcomes", Cause: err}
		}
		var outcome backtest.ActualOutcome
		if err := json.Unmarshal(snapshot, &outcome); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "keyword_daily_outcomes", Cause: err}
		}
		outcome.KeywordID = keywordID
		outcome.Date = date
		out = append(out, outcome)
	}
	return out, rows.Err()
}

// UpsertActualOutcome records one keyword×day observed outcome, the feed a
// warehouse sync job would write into ahead of a backtest run.
func (r *BacktestRepository) UpsertActualOutcome(ctx context.Context, outcome backtest.ActualOutcome) error {
	snapshot, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO keyword_daily_outcomes (keyword_id, date, snapshot_json)
		VALUES (?, ?, ?)
		ON CONFLICT(keyword_id, date) DO UPDATE SET snapshot_json = excluded.snapshot_json
	`, outcome.KeywordID, outcome.Date, snapshot)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "keyword_daily_outcomes", Cause: err}
	}
	return nil
}

// InsertExecution persists one completed backtest run plus its daily detail
// series in a single transaction.
func (r *BacktestRepository) InsertExecution(ctx context.Context, exec domain.BacktestExecution, details []domain.BacktestDailyDetail) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "backtest_executions", Cause: err}
	}
	defer tx.Rollback()

	asinFilter, err := json.Marshal(exec.ASINFilter)
	if err != nil {
		return err
	}
	campaignFilter, err := json.Marshal(exec.CampaignFilter)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_executions (
			execution_id, start_date, end_date, granularity, margin_rate,
			asin_filter_json, campaign_filter_json, total_decisions, correct_decisions,
			accuracy_rate, actual_acos, simulated_acos, acos_delta_points,
			actual_spend, simulated_spend, spend_delta, actual_sales, simulated_sales,
			sales_delta, estimated_profit_gain, created_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		exec.ExecutionID, exec.StartDate, exec.EndDate, exec.Granularity, exec.MarginRate,
		asinFilter, campaignFilter, exec.TotalDecisions, exec.CorrectDecisions,
		exec.AccuracyRate, exec.ActualACOS, exec.SimulatedACOS, exec.ACOSDeltaPoints,
		exec.ActualSpend, exec.SimulatedSpend, exec.SpendDelta, exec.ActualSales, exec.SimulatedSales,
		exec.SalesDelta, exec.EstimatedProfitGain, exec.CreatedAt, exec.DurationMS,
	)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "backtest_executions", Cause: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_daily_details (
			execution_id, date, actual_spend, simulated_spend, actual_sales, simulated_sales,
			actual_acos, simulated_acos, matched_decisions, correct_decisions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "backtest_daily_details", Cause: err}
	}
	defer stmt.Close()

	for _, d := range details {
		_, err := stmt.ExecContext(ctx,
			exec.ExecutionID, d.Date, d.ActualSpend, d.SimulatedSpend, d.ActualSales, d.SimulatedSales,
			d.ActualACOS, d.SimulatedACOS, d.MatchedDecisions, d.CorrectDecisions,
		)
		if err != nil {
			return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "backtest_daily_details", Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "backtest_executions", Cause: err}
	}
	return nil
}

// ListExecutions paginates backtest_executions, newest first.
func (r *BacktestRepository) ListExecutions(ctx context.Context, limit, offset int) ([]domain.BacktestExecution, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT execution_id, start_date, end_date, granularity, margin_rate,
			asin_filter_json, campaign_filter_json, total_decisions, correct_decisions,
			accuracy_rate, actual_acos, simulated_acos, acos_delta_points,
			actual_spend, simulated_spend, spend_delta, actual_sales, simulated_sales,
			sales_delta, estimated_profit_gain, created_at, duration_ms
		FROM backtest_executions
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "backtest_executions", Cause: err}
	}
	defer rows.Close()

	var out []domain.BacktestExecution
	for rows.Next() {
		var exec domain.BacktestExecution
		var asinFilter, campaignFilter []byte
		if err := rows.Scan(
			&exec.ExecutionID, &exec.StartDate, &exec.EndDate, &exec.Granularity, &exec.MarginRate,
			&asinFilter, &campaignFilter, &exec.TotalDecisions, &exec.CorrectDecisions,
			&exec.AccuracyRate, &exec.ActualACOS, &exec.SimulatedACOS, &exec.ACOSDeltaPoints,
			&exec.ActualSpend, &exec.SimulatedSpend, &exec.SpendDelta, &exec.ActualSales, &exec.SimulatedSales,
			&exec.SalesDelta, &exec.EstimatedProfitGain, &exec.CreatedAt, &exec.DurationMS,
		); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "backtest_executions", Cause: err}
		}
		json.Unmarshal(asinFilter, &exec.ASINFilter)
		json.Unmarshal(campaignFilter, &exec.CampaignFilter)
		out = append(out, exec)
	}
	return out, rows.Err()
}

// GetExecution loads one execution by id, plus its daily detail series, for
// the export endpoint.
func (r *BacktestRepository) GetExecution(ctx context.Context, executionID string) (domain.BacktestExecution, []domain.BacktestDailyDetail, error) {
	var exec domain.BacktestExecution
	var asinFilter, campaignFilter []byte
	row := r.db.conn.QueryRowContext(ctx, `
		SELECT execution_id, start_date, end_date, granularity, margin_rate,
			asin_filter_json, campaign_filter_json, total_decisions, correct_decisions,
			accuracy_rate, actual_acos, simulated_acos, acos_delta_points,
			actual_spend, simulated_spend, spend_delta, actual_sales, simulated_sales,
			sales_delta, estimated_profit_gain, created_at, duration_ms
		FROM backtest_executions WHERE execution_id = ?
	`, executionID)
	if err := row.Scan(
		&exec.ExecutionID, &exec.StartDate, &exec.EndDate, &exec.Granularity, &exec.MarginRate,
		&asinFilter, &campaignFilter, &exec.TotalDecisions, &exec.CorrectDecisions,
		&exec.AccuracyRate, &exec.ActualACOS, &exec.SimulatedACOS, &exec.ACOSDeltaPoints,
		&exec.ActualSpend, &exec.SimulatedSpend, &exec.SpendDelta, &exec.ActualSales, &exec.SimulatedSales,
		&exec.SalesDelta, &exec.EstimatedProfitGain, &exec.CreatedAt, &exec.DurationMS,
	); err != nil {
		if err == sql.ErrNoRows {
			return exec, nil, err
		}
		return exec, nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "backtest_executions", Cause: err}
	}
	json.Unmarshal(asinFilter, &exec.ASINFilter)
	json.Unmarshal(campaignFilter, &exec.CampaignFilter)

	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT execution_id, date, actual_spend, simulated_spend, actual_sales, simulated_sales,
			actual_acos, simulated_acos, matched_decisions, correct_decisions
		FROM backtest_daily_details WHERE execution_id = ? ORDER BY date ASC
	`, executionID)
	if err != nil {
		return exec, nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "backtest_daily_details", Cause: err}
	}
	defer rows.Close()

	var details []domain.BacktestDailyDetail
	for rows.Next() {
		var d domain.BacktestDailyDetail
		if err := rows.Scan(
			&d.ExecutionID, &d.Date, &d.ActualSpend, &d.SimulatedSpend, &d.ActualSales, &d.SimulatedSales,
			&d.ActualACOS, &d.SimulatedACOS, &d.MatchedDecisions, &d.CorrectDecisions,
		); err != nil {
			return exec, nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "backtest_daily_details", Cause: err}
		}
		details = append(details, d)
	}
	return exec, details, rows.Err()
}

func inClause(values []string) (string, []any) {
	placeholders := ""
	args := make([]any, len(values))
	for i, v := range values {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = v
	}
	return placeholders, args
}
