package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// CategoryStats summarizes stored values of one category.
type CategoryStats struct {
	// Category is the value category.
	Category model.Category `json:"category"`

	// Values is the number of (finding, value) pairs.
	Values int `json:"values"`

	// Distinct is the number of distinct values across all findings.
	Distinct int `json:"distinct"`

	// Findings is the number of findings with at least one value.
	Findings int `json:"findings"`
}

// QueryStats is the number of findings attributed to one base query.
type QueryStats struct {
	Query    string `json:"query"`
	Findings int    `json:"findings"`
}

// Stats is an overview of the store.
type Stats struct {
	// Findings is the total number of stored findings.
	Findings int `json:"findings"`

	// Categories has one entry per category in canonical order.
	Categories []CategoryStats `json:"categories"`

	// Queries lists base queries by number of findings, most productive first.
	Queries []QueryStats `json:"queries"`

	// FirstSeen is the timestamp of the oldest finding. Zero when empty.
	FirstSeen time.Time `json:"first_seen"`

	// LastSeen is the timestamp of the newest finding. Zero when empty.
	LastSeen time.Time `json:"last_seen"`
}

// Stats computes an overview of the stored findings.
func (ldb *LeakDB) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Categories: make([]CategoryStats, 0, len(model.Categories())),
		Queries:    make([]QueryStats, 0),
	}

	var first, last sql.NullString
	err := ldb.db.QueryRowContext(ctx, `
	SELECT COUNT(*), MIN(timestamp), MAX(timestamp) FROM findings
	`).Scan(&stats.Findings, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize findings: %w", err)
	}
	if first.Valid {
		stats.FirstSeen = parseTimestamp(first.String)
	}
	if last.Valid {
		stats.LastSeen = parseTimestamp(last.String)
	}

	for _, category := range model.Categories() {
		cs := CategoryStats{Category: category}
		err := ldb.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT value), COUNT(DISTINCT finding_id)
		FROM finding_values
		WHERE category = ?
		`, string(category)).Scan(&cs.Values, &cs.Distinct, &cs.Findings)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", category, err)
		}
		stats.Categories = append(stats.Categories, cs)
	}

	rows, err := ldb.db.QueryContext(ctx, `
	SELECT query, COUNT(*) AS n
	FROM findings
	GROUP BY query
	ORDER BY n DESC, query ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize queries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qs QueryStats
		if err := rows.Scan(&qs.Query, &qs.Findings); err != nil {
			return nil, fmt.Errorf("failed to scan query summary: %w", err)
		}
		stats.Queries = append(stats.Queries, qs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to summarize queries: %w", err)
	}

	return stats, nil
}
