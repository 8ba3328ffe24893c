package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// CaseRow represents a row in the cases table.
type CaseRow struct {
	Slug      string
	Title     string
	Summary   string
	Checksum  string
	Sector    []string
	Category  []string
	Role      []string
	Draft     bool
	SortKey   time.Time
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchOptions narrows a search. Tag filters follow the listing rules:
// OR within a dimension, AND across dimensions.
type SearchOptions struct {
	Limit    int
	Sector   []string
	Category []string
	Role     []string
}

func (o SearchOptions) limit() uint64 {
	if o.Limit <= 0 {
		return 20
	}
	return uint64(o.Limit)
}

// tagPredicates builds one OR group per constrained dimension.
func (o SearchOptions) tagPredicates(table string) sq.And {
	var and sq.And
	add := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		var or sq.Or
		for _, v := range values {
			quoted, _ := json.Marshal(v)
			or = append(or, sq.Like{table + "." + col: "%" + string(quoted) + "%"})
		}
		and = append(and, or)
	}
	add("sector", o.Sector)
	add("category", o.Category)
	add("role", o.Role)
	return and
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func joinTags(c CaseRow) []string {
	out := make([]string, 0, len(c.Sector)+len(c.Category)+len(c.Role))
	out = append(out, c.Sector...)
	out = append(out, c.Category...)
	return append(out, c.Role...)
}

// UpsertCase inserts or replaces a case and its FTS entry within a transaction.
func (db *DB) UpsertCase(c CaseRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	var sortKey int64
	if !c.SortKey.IsZero() {
		sortKey = c.SortKey.Unix()
	}

	query, args, err := sq.Insert("cases").
		Columns("slug", "title", "summary", "checksum", "sector", "category", "role", "body", "draft", "sort_key", "updated_at").
		Values(c.Slug, c.Title, c.Summary, c.Checksum, encodeTags(c.Sector), encodeTags(c.Category), encodeTags(c.Role),
			body, c.Draft, sortKey, updatedAt).
		Suffix(`ON CONFLICT(slug) DO UPDATE SET
			title      = excluded.title,
			summary    = excluded.summary,
			checksum   = excluded.checksum,
			sector     = excluded.sector,
			category   = excluded.category,
			role       = excluded.role,
			body       = excluded.body,
			draft      = excluded.draft,
			sort_key   = excluded.sort_key,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("index: build upsert: %w", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("index: upsert case: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, c.Slug, c.Title, c.Summary, body, joinTags(c)); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteCase removes a case and its FTS entry.
func (db *DB) DeleteCase(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	query, args, _ := sq.Delete("cases").Where(sq.Eq{"slug": slug}).ToSql()
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("index: delete case: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a case, or empty string if not found.
func (db *DB) GetChecksum(slug string) (string, error) {
	var cs string
	err := db.sb.Select("checksum").From("cases").Where(sq.Eq{"slug": slug}).QueryRow().Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns slug → checksum for every indexed case.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.sb.Select("slug", "checksum").From("cases").Query()
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed cases.
func (db *DB) Count(includeDrafts bool) (int, error) {
	q := db.sb.Select("count(*)").From("cases")
	if !includeDrafts {
		q = q.Where(sq.Eq{"draft": false})
	}
	var n int
	if err := q.QueryRow().Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		r.Snippet = strings.TrimSpace(r.Snippet)
		out = append(out, r)
	}
	return out, rows.Err()
}
