//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on the cases table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	// Body is already stored in the cases table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
// Drafts never match.
func (db *DB) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	like := "%" + query + "%"
	q := db.sb.Select("c.slug", "c.title", "substr(CASE WHEN c.summary != '' THEN c.summary ELSE c.body END, 1, 200)").
		From("cases c").
		Where(sq.Eq{"c.draft": false}).
		Where(sq.Or{
			sq.Like{"c.title": like},
			sq.Like{"c.summary": like},
			sq.Like{"c.body": like},
			sq.Like{"c.sector": like},
			sq.Like{"c.category": like},
			sq.Like{"c.role": like},
		}).
		OrderBy("c.sort_key DESC", "c.slug").
		Limit(opts.limit())
	if preds := opts.tagPredicates("c"); len(preds) > 0 {
		q = q.Where(preds)
	}
	rows, err := q.Query()
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
