package warehouse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mbicorp/adbid-engine/internal/engineerr"
	"github.com/mbicorp/adbid-engine/internal/negative"
)

// SearchTermRow is one query-cluster's accumulated metrics plus the raw
// search term and source keyword the auto-exact promotion rule needs,
// which ClusterMetrics itself (the canonical-query-keyed aggregate) does
// not carry.
type SearchTermRow struct {
	Metrics         negative.ClusterMetrics
	Whitelist       negative.WhitelistStatus
	SearchTerm      string
	SourceKeywordID string
}

// SearchTermRepository loads the search-term clusters C10 and its
// auto-exact promotion companion rule read.
type SearchTermRepository struct {
	db *DB
}

// NewSearchTermRepository builds a SearchTermRepository.
func NewSearchTermRepository(db *DB) *SearchTermRepository {
	return &SearchTermRepository{db: db}
}

// LoadClusters returns every search_term_clusters row, optionally filtered
// to a product id set (empty = no filter).
func (r *SearchTermRepository) LoadClusters(ctx context.Context, productIDs []string) ([]SearchTermRow, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT search_term, source_keyword_id, metrics_json, whitelist_json FROM search_term_clusters
	`)
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "search_term_clusters", Cause: err}
	}
	defer rows.Close()

	filter := toSet(productIDs)
	var out []SearchTermRow
	for rows.Next() {
		var row SearchTermRow
		var metricsRaw, whitelistRaw string
		if err := rows.Scan(&row.SearchTerm, &row.SourceKeywordID, &metricsRaw, &whitelistRaw); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "search_term_clusters", Cause: err}
		}
		if err := json.Unmarshal([]byte(metricsRaw), &row.Metrics); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "search_term_clusters", Cause: err}
		}
		if err := json.Unmarshal([]byte(whitelistRaw), &row.Whitelist); err != nil {
			return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "search_term_clusters", Cause: err}
		}
		if len(filter) == 0 || filter[row.Metrics.ProductID] {
			out = append(out, row)
		}
	}
	return out, rows.Err()
}

// UpsertCluster writes (or replaces) one query-cluster row.
func (r *SearchTermRepository) UpsertCluster(ctx context.Context, row SearchTermRow, asOf time.Time) error {
	metricsRaw, err := json.Marshal(row.Metrics)
	if err != nil {
		return err
	}
	whitelistRaw, err := json.Marshal(row.Whitelist)
	if err != nil {
		return err
	}
	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO search_term_clusters (product_id, canonical_query, search_term, source_keyword_id, metrics_json, whitelist_json, as_of)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, canonical_query) DO UPDATE SET
			search_term=excluded.search_term, source_keyword_id=excluded.source_keyword_id,
			metrics_json=excluded.metrics_json, whitelist_json=excluded.whitelist_json, as_of=excluded.as_of
	`, row.Metrics.ProductID, row.Metrics.CanonicalQuery, row.SearchTerm, row.SourceKeywordID, metricsRaw, whitelistRaw, asOf)
	if err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "search_term_clusters", Cause: err}
	}
	return nil
}
