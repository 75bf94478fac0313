package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs the query against cellar_bottles using its generated tsvector,
// falling back to a substring match so partial names still hit.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := `(search_tsv @@ plainto_tsquery('simple', $1) OR name ILIKE '%' || $1 || '%')`
	args := []any{q.Text}
	argN := 2
	if q.FilterCategory != "" {
		where += fmt.Sprintf(" AND category = $%d", argN)
		args = append(args, q.FilterCategory)
		argN++
	}
	if q.OnlyInStock {
		where += " AND quantity > 0"
	}

	ctx := context.Background()

	var total int
	countSQL := "SELECT count(*) FROM cellar_bottles WHERE " + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT id, name, producer, region, vintage, category, quantity
		FROM cellar_bottles
		WHERE %s
		ORDER BY ts_rank(search_tsv, plainto_tsquery('simple', $1)) DESC, name ASC
		LIMIT %d OFFSET %d
	`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Name, &r.Producer, &r.Region, &r.Vintage, &r.Category, &r.Quantity); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns every bottle for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]BottleRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, producer, region, vintage, category, quantity
		FROM cellar_bottles
	`)
	if err != nil {
		return nil, fmt.Errorf("load bottles: %w", err)
	}
	defer rows.Close()

	bottles := make([]BottleRecord, 0)
	for rows.Next() {
		var b BottleRecord
		if err := rows.Scan(&b.ID, &b.Name, &b.Producer, &b.Region, &b.Vintage, &b.Category, &b.Quantity); err != nil {
			return nil, fmt.Errorf("scan bottle: %w", err)
		}
		bottles = append(bottles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bottles: %w", err)
	}
	return bottles, nil
}
