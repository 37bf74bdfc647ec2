package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mbicorp/adbid-engine/internal/domain"
	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

// InputRepository loads every entity the engines read. Snapshot columns are
// stored as JSON (params_json, same idiom as the teacher's cash_flows
// schema) because the row shape is the domain type itself - there is no
// additional relational structure to normalize, and it keeps one repository
// per table instead of one per field.
type InputRepository struct {
	db *DB
}

// NewInputRepository builds an InputRepository over an open warehouse.
func NewInputRepository(db *DB) *InputRepository {
	return &InputRepository{db: db}
}

// LoadKeywordMetrics returns every keyword_metrics_60d row, optionally
// filtered to a product id set (empty = no filter).
func (r *InputRepository) LoadKeywordMetrics(ctx context.Context, productIDs []string) ([]domain.KeywordMetrics, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT snapshot_json FROM keyword_metrics_60d`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "keyword_metrics_60d", Cause: err}
	}
	defer rows.Close()

	filter := toSet(productIDs)
	out := make([]domain.KeywordMetrics, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "keyword_metrics_60d", Cause: err}
		}
		var m domain.KeywordMetrics
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "keyword_metrics_60d", Cause: err}
		}
		if len(filter) == 0 || filter[m.ProductID] {
			out = append(out, m)
		}
	}
	return out, rows.Err()
}

// UpsertKeywordMetrics writes one keyword's snapshot, replacing any prior row.
func (r *InputRepository) UpsertKeywordMetrics(ctx context.Context, m domain.KeywordMetrics, asOf time.Time) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO keyword_metrics_60d (keyword_id, campaign_id, ad_group_id, product_id, current_bid, snapshot_json, as_of)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(keyword_id) DO UPDATE SET
			campaign_id=excluded.campaign_id, ad_group_id=excluded.ad_group_id,
			product_id=excluded.product_id, current_bid=excluded.current_bid,
			snapshot_json=excluded.snapshot_json, as_of=excluded.as_of
	`, m.KeywordID, m.CampaignID, m.AdGroupID, m.ProductID, m.CurrentBid, raw, asOf)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "keyword_metrics_60d", Cause: err}
	}
	return nil
}

// LoadProductStrategies returns every product_strategy row keyed by ProductID.
func (r *InputRepository) LoadProductStrategies(ctx context.Context) (map[string]domain.ProductStrategy, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT snapshot_json FROM product_strategy`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "product_strategy", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]domain.ProductStrategy)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "product_strategy", Cause: err}
		}
		var s domain.ProductStrategy
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "product_strategy", Cause: err}
		}
		out[s.ProductID] = s
	}
	return out, rows.Err()
}

// UpsertProductStrategy writes (or replaces) one product's strategy row,
// keeping the `stage` column - used for WHERE-clause filtering by the HTTP
// admin surface - in sync with the JSON snapshot (§3 invariant).
func (r *InputRepository) UpsertProductStrategy(ctx context.Context, s domain.ProductStrategy, asOf time.Time) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO product_strategy (product_id, stage, snapshot_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET stage=excluded.stage, snapshot_json=excluded.snapshot_json, updated_at=excluded.updated_at
	`, s.ProductID, string(s.Stage), raw, asOf)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "product_strategy", Cause: err}
	}
	return nil
}

// LoadRecentMonthlyProfits returns, per product, the `months` most recent
// monthly_profit_by_product rows ordered oldest-first (the ordering C8's
// lifecycle state machine requires of lifecycle.Input.RecentProfits).
func (r *InputRepository) LoadRecentMonthlyProfits(ctx context.Context, months int) (map[string][]domain.MonthlyProfit, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT product_id, snapshot_json FROM monthly_profit_by_product ORDER BY product_id, month ASC`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "monthly_profit_by_product", Cause: err}
	}
	defer rows.Close()

	byProduct := make(map[string][]domain.MonthlyProfit)
	for rows.Next() {
		var productID, raw string
		if err := rows.Scan(&productID, &raw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "monthly_profit_by_product", Cause: err}
		}
		var p domain.MonthlyProfit
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "monthly_profit_by_product", Cause: err}
		}
		byProduct[productID] = append(byProduct[productID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if months > 0 {
		for pid, list := range byProduct {
			if len(list) > months {
				byProduct[pid] = list[len(list)-months:]
			}
		}
	}
	return byProduct, nil
}

// UpsertMonthlyProfit writes one product x month profitability row.
func (r *InputRepository) UpsertMonthlyProfit(ctx context.Context, p domain.MonthlyProfit) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO monthly_profit_by_product (product_id, month, snapshot_json)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id, month) DO UPDATE SET snapshot_json=excluded.snapshot_json
	`, p.ProductID, p.Month, raw)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "monthly_profit_by_product", Cause: err}
	}
	return nil
}

// LoadLatestSeoScores returns each product's most recent seo_score_by_product row.
func (r *InputRepository) LoadLatestSeoScores(ctx context.Context) (map[string]domain.SeoScore, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT s.snapshot_json FROM seo_score_by_product s
		INNER JOIN (SELECT product_id, MAX(month) AS max_month FROM seo_score_by_product GROUP BY product_id) latest
		ON s.product_id = latest.product_id AND s.month = latest.max_month
	`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "seo_score_by_product", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]domain.SeoScore)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "seo_score_by_product", Cause: err}
		}
		var s domain.SeoScore
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "seo_score_by_product", Cause: err}
		}
		out[s.ProductID] = s
	}
	return out, rows.Err()
}

// UpsertSeoScore writes one product x month SEO score row.
func (r *InputRepository) UpsertSeoScore(ctx context.Context, s domain.SeoScore) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO seo_score_by_product (product_id, month, snapshot_json)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id, month) DO UPDATE SET snapshot_json=excluded.snapshot_json
	`, s.ProductID, s.Month, raw)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "seo_score_by_product", Cause: err}
	}
	return nil
}

// CoreKeywordRow pairs a core keyword's static config with its rank summary,
// the two halves of seo_keywords_by_product.
type CoreKeywordRow struct {
	Config  domain.CoreKeywordConfig
	Summary domain.KeywordRankSummary
}

// LoadCoreKeywords returns every seo_keywords_by_product row, grouped by product.
func (r *InputRepository) LoadCoreKeywords(ctx context.Context) (map[string][]CoreKeywordRow, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT product_id, config_json, summary_json FROM seo_keywords_by_product`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "seo_keywords_by_product", Cause: err}
	}
	defer rows.Close()

	out := make(map[string][]CoreKeywordRow)
	for rows.Next() {
		var productID, configRaw, summaryRaw string
		if err := rows.Scan(&productID, &configRaw, &summaryRaw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "seo_keywords_by_product", Cause: err}
		}
		var row CoreKeywordRow
		if err := json.Unmarshal([]byte(configRaw), &row.Config); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "seo_keywords_by_product", Cause: err}
		}
		if err := json.Unmarshal([]byte(summaryRaw), &row.Summary); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "seo_keywords_by_product", Cause: err}
		}
		out[productID] = append(out[productID], row)
	}
	return out, rows.Err()
}

// UpsertCoreKeyword writes one CORE keyword's config + rank summary.
func (r *InputRepository) UpsertCoreKeyword(ctx context.Context, row CoreKeywordRow, asOf time.Time) error {
	configRaw, err := json.Marshal(row.Config)
	if err != nil {
		return err
	}
	summaryRaw, err := json.Marshal(row.Summary)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO seo_keywords_by_product (keyword_id, product_id, config_json, summary_json, as_of)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(keyword_id) DO UPDATE SET config_json=excluded.config_json, summary_json=excluded.summary_json, as_of=excluded.as_of
	`, row.Config.KeywordID, row.Config.ProductID, configRaw, summaryRaw, asOf)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "seo_keywords_by_product", Cause: err}
	}
	return nil
}

// LoadLossBudgets returns every loss_budget_summary row keyed by ProductID.
func (r *InputRepository) LoadLossBudgets(ctx context.Context) (map[string]domain.LossBudgetSummary, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT snapshot_json FROM loss_budget_summary`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "loss_budget_summary", Cause: err}
	}
	defer rows.Close()

	out := make(map[string]domain.LossBudgetSummary)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "loss_budget_summary", Cause: err}
		}
		var l domain.LossBudgetSummary
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "loss_budget_summary", Cause: err}
		}
		out[l.ProductID] = l
	}
	return out, rows.Err()
}

// UpsertLossBudget writes one product's loss-budget consumption row.
func (r *InputRepository) UpsertLossBudget(ctx context.Context, l domain.LossBudgetSummary, asOf time.Time) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO loss_budget_summary (product_id, snapshot_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET snapshot_json=excluded.snapshot_json, updated_at=excluded.updated_at
	`, l.ProductID, raw, asOf)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "loss_budget_summary", Cause: err}
	}
	return nil
}

// LoadBudgetMetrics returns the campaign_budget_metrics view's rows.
func (r *InputRepository) LoadBudgetMetrics(ctx context.Context) ([]domain.BudgetMetrics, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT snapshot_json FROM campaign_budget_metrics`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "campaign_budget_metrics", Cause: err}
	}
	defer rows.Close()

	out := make([]domain.BudgetMetrics, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "campaign_budget_metrics", Cause: err}
		}
		var b domain.BudgetMetrics
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "campaign_budget_metrics", Cause: err}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpsertBudgetMetrics writes one campaign's budget snapshot.
func (r *InputRepository) UpsertBudgetMetrics(ctx context.Context, b domain.BudgetMetrics, asOf time.Time) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO campaign_budget_metrics (campaign_id, snapshot_json, as_of)
		VALUES (?, ?, ?)
		ON CONFLICT(campaign_id) DO UPDATE SET snapshot_json=excluded.snapshot_json, as_of=excluded.as_of
	`, b.CampaignID, raw, asOf)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "campaign_budget_metrics", Cause: err}
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// ErrNotFound is returned by single-row lookups that found nothing. It is
// not part of the §7 error taxonomy: callers treat a miss as "no strategy
// configured for this product", which is a normal, recoverable branch, not
// an I/O failure.
var ErrNotFound = sql.ErrNoRows
