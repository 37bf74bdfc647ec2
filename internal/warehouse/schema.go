package warehouse

// schema holds every table the core relies on (spec.md §6), plus two tables
// the distillation left implicit: keyword_daily_outcomes (the backtest
// engine's "stored per-keyword x day actual outcomes") and
// loss_budget_summary (LossBudgetSummary is a data-model entity in spec.md
// §3 but the spec never names the table it is sourced from; it is
// materialized upstream of this core on the same cadence as
// monthly_profit_by_product, so it gets the same table treatment here).
//
// Column prefixes follow the spec's "{project}.{dataset}.{table}" naming
// only nominally - a single SQLite file plays the role of one dataset, and
// table names carry the dataset's table name unprefixed, same as the
// teacher collapsing each Python "database" into one on-disk SQLite file.
const schema = `
CREATE TABLE IF NOT EXISTS keyword_metrics_60d (
	keyword_id TEXT PRIMARY KEY,
	campaign_id TEXT NOT NULL,
	ad_group_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	current_bid INTEGER NOT NULL,
	snapshot_json TEXT NOT NULL,
	as_of DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_keyword_metrics_product ON keyword_metrics_60d(product_id);

CREATE TABLE IF NOT EXISTS product_strategy (
	product_id TEXT PRIMARY KEY,
	stage TEXT NOT NULL,
	snapshot_json TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_profit_by_product (
	product_id TEXT NOT NULL,
	month DATETIME NOT NULL,
	snapshot_json TEXT NOT NULL,
	PRIMARY KEY (product_id, month)
);

CREATE TABLE IF NOT EXISTS seo_score_by_product (
	product_id TEXT NOT NULL,
	month DATETIME NOT NULL,
	snapshot_json TEXT NOT NULL,
	PRIMARY KEY (product_id, month)
);

CREATE TABLE IF NOT EXISTS seo_keywords_by_product (
	keyword_id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	config_json TEXT NOT NULL,
	summary_json TEXT NOT NULL,
	as_of DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_seo_keywords_product ON seo_keywords_by_product(product_id);

CREATE TABLE IF NOT EXISTS loss_budget_summary (
	product_id TEXT PRIMARY KEY,
	snapshot_json TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS campaign_budget_metrics (
	campaign_id TEXT PRIMARY KEY,
	snapshot_json TEXT NOT NULL,
	as_of DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS search_term_clusters (
	product_id TEXT NOT NULL,
	canonical_query TEXT NOT NULL,
	search_term TEXT NOT NULL,
	source_keyword_id TEXT NOT NULL,
	metrics_json TEXT NOT NULL,
	whitelist_json TEXT NOT NULL,
	as_of DATETIME NOT NULL,
	PRIMARY KEY (product_id, canonical_query)
);
CREATE INDEX IF NOT EXISTS idx_search_term_clusters_product ON search_term_clusters(product_id);

CREATE TABLE IF NOT EXISTS keyword_daily_outcomes (
	keyword_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	snapshot_json TEXT NOT NULL,
	PRIMARY KEY (keyword_id, date)
);

CREATE TABLE IF NOT EXISTS bid_recommendations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	keyword_id TEXT NOT NULL,
	campaign_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	action TEXT NOT NULL,
	current_bid INTEGER NOT NULL,
	recommended_bid INTEGER NOT NULL,
	change_rate REAL NOT NULL,
	clipped INTEGER NOT NULL,
	clip_reason TEXT NOT NULL,
	reason_code TEXT NOT NULL,
	reason_detail TEXT NOT NULL,
	guardrail_flags TEXT NOT NULL,
	input_snapshot_json TEXT NOT NULL,
	status TEXT NOT NULL,
	approved_at DATETIME,
	approved_by TEXT NOT NULL DEFAULT '',
	rejected_at DATETIME,
	rejected_by TEXT NOT NULL DEFAULT '',
	applied_at DATETIME,
	apply_error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bid_rec_execution ON bid_recommendations(execution_id);
CREATE INDEX IF NOT EXISTS idx_bid_rec_status ON bid_recommendations(status);

CREATE TABLE IF NOT EXISTS budget_recommendations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	campaign_id TEXT NOT NULL,
	action TEXT NOT NULL,
	current_budget INTEGER NOT NULL,
	recommended_budget INTEGER NOT NULL,
	clipped INTEGER NOT NULL,
	clip_reason TEXT NOT NULL,
	reason_code TEXT NOT NULL,
	reason_detail TEXT NOT NULL,
	input_snapshot_json TEXT NOT NULL,
	status TEXT NOT NULL,
	approved_at DATETIME,
	approved_by TEXT NOT NULL DEFAULT '',
	rejected_at DATETIME,
	rejected_by TEXT NOT NULL DEFAULT '',
	applied_at DATETIME,
	apply_error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_budget_rec_execution ON budget_recommendations(execution_id);

CREATE TABLE IF NOT EXISTS negative_keyword_suggestions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	canonical_query TEXT NOT NULL,
	intent TEXT NOT NULL,
	phase TEXT NOT NULL,
	verdict TEXT NOT NULL,
	cluster_clicks INTEGER NOT NULL,
	cluster_conversions INTEGER NOT NULL,
	required_clicks INTEGER NOT NULL,
	whitelist_override INTEGER NOT NULL,
	reason_code TEXT NOT NULL,
	reason_detail TEXT NOT NULL,
	status TEXT NOT NULL,
	approved_at DATETIME,
	approved_by TEXT NOT NULL DEFAULT '',
	rejected_at DATETIME,
	rejected_by TEXT NOT NULL DEFAULT '',
	applied_at DATETIME,
	apply_error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_neg_sugg_execution ON negative_keyword_suggestions(execution_id);

CREATE TABLE IF NOT EXISTS auto_exact_promotion_suggestions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	search_term TEXT NOT NULL,
	source_keyword_id TEXT NOT NULL,
	clicks INTEGER NOT NULL,
	conversions INTEGER NOT NULL,
	acos REAL NOT NULL,
	reason_code TEXT NOT NULL,
	reason_detail TEXT NOT NULL,
	status TEXT NOT NULL,
	approved_at DATETIME,
	approved_by TEXT NOT NULL DEFAULT '',
	rejected_at DATETIME,
	rejected_by TEXT NOT NULL DEFAULT '',
	applied_at DATETIME,
	apply_error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_auto_exact_execution ON auto_exact_promotion_suggestions(execution_id);

CREATE TABLE IF NOT EXISTS lifecycle_transitions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	current_stage TEXT NOT NULL,
	recommended_stage TEXT NOT NULL,
	should_transition INTEGER NOT NULL,
	extension_months_granted INTEGER NOT NULL,
	force_harvest INTEGER NOT NULL,
	is_emergency_exit INTEGER NOT NULL,
	warnings_json TEXT NOT NULL,
	reason_code TEXT NOT NULL,
	reason_detail TEXT NOT NULL,
	status TEXT NOT NULL,
	approved_at DATETIME,
	approved_by TEXT NOT NULL DEFAULT '',
	rejected_at DATETIME,
	rejected_by TEXT NOT NULL DEFAULT '',
	applied_at DATETIME,
	apply_error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lifecycle_execution ON lifecycle_transitions(execution_id);

CREATE TABLE IF NOT EXISTS backtest_executions (
	execution_id TEXT PRIMARY KEY,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	granularity TEXT NOT NULL,
	margin_rate REAL NOT NULL,
	asin_filter_json TEXT NOT NULL,
	campaign_filter_json TEXT NOT NULL,
	total_decisions INTEGER NOT NULL,
	correct_decisions INTEGER NOT NULL,
	accuracy_rate REAL NOT NULL,
	actual_acos REAL NOT NULL,
	simulated_acos REAL NOT NULL,
	acos_delta_points REAL NOT NULL,
	actual_spend REAL NOT NULL,
	simulated_spend REAL NOT NULL,
	spend_delta REAL NOT NULL,
	actual_sales REAL NOT NULL,
	simulated_sales REAL NOT NULL,
	sales_delta REAL NOT NULL,
	estimated_profit_gain REAL NOT NULL,
	created_at DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_daily_details (
	execution_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	actual_spend REAL NOT NULL,
	simulated_spend REAL NOT NULL,
	actual_sales REAL NOT NULL,
	simulated_sales REAL NOT NULL,
	actual_acos REAL NOT NULL,
	simulated_acos REAL NOT NULL,
	matched_decisions INTEGER NOT NULL,
	correct_decisions INTEGER NOT NULL,
	PRIMARY KEY (execution_id, date)
);

CREATE TABLE IF NOT EXISTS apply_dedupe (
	execution_id TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	applied_at DATETIME NOT NULL,
	PRIMARY KEY (execution_id, entity_id)
);
`
