//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS cases_fts USING fts5(
			slug UNINDEXED,
			title,
			summary,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, slug, title, summary, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM cases_fts WHERE slug = ?`, slug)
	_, err := tx.Exec(`INSERT INTO cases_fts (slug, title, summary, body, tags) VALUES (?, ?, ?, ?, ?)`,
		slug, title, summary, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, slug string) {
	_, _ = tx.Exec(`DELETE FROM cases_fts WHERE slug = ?`, slug)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
// Drafts never match.
func (db *DB) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	q := db.sb.Select("cases_fts.slug", "c.title", "snippet(cases_fts, 3, '<b>', '</b>', '...', 32)").
		From("cases_fts").
		Join("cases c ON c.slug = cases_fts.slug").
		Where("cases_fts MATCH ?", query).
		Where(sq.Eq{"c.draft": false}).
		OrderBy("rank").
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
