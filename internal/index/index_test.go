package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "casefolio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM cases`).Scan(&count); err != nil {
		t.Fatalf("cases table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := CaseRow{
		Slug:     "intake",
		Title:    "Intake redesign",
		Checksum: "abc123",
		Sector:   []string{"Health"},
		Role:     []string{"Research"},
	}
	if err := db.UpsertCase(row, "We rebuilt the intake flow."); err != nil {
		t.Fatalf("UpsertCase: %v", err)
	}
	cs, err := db.GetChecksum("intake")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestDeleteCase(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{Slug: "del", Checksum: "x"}, "body")

	if err := db.DeleteCase("del"); err != nil {
		t.Fatalf("DeleteCase: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted case still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{Slug: "up", Title: "Old", Checksum: "1"}, "old body")
	_ = db.UpsertCase(CaseRow{Slug: "up", Title: "New", Checksum: "2"}, "new body")

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	n, _ := db.Count(true)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestCount_ExcludesDrafts(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{Slug: "live", Checksum: "1"}, "")
	_ = db.UpsertCase(CaseRow{Slug: "wip", Checksum: "2", Draft: true}, "")

	if n, _ := db.Count(false); n != 1 {
		t.Errorf("Count(false) = %d, want 1", n)
	}
	if n, _ := db.Count(true); n != 2 {
		t.Errorf("Count(true) = %d, want 2", n)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{Slug: "s", Title: "Search Me", Checksum: "1"}, "uniqueword appears here")

	results, err := db.Search("uniqueword", SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestSearch_SkipsDrafts(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{Slug: "hidden", Title: "Hidden", Checksum: "1", Draft: true}, "secretword")

	results, err := db.Search("secretword", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("draft leaked into search: %+v", results)
	}
}

func TestSearch_TagFilters(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertCase(CaseRow{Slug: "a", Title: "A", Checksum: "1", Sector: []string{"Health"}, Role: []string{"Design"}}, "shared")
	_ = db.UpsertCase(CaseRow{Slug: "b", Title: "B", Checksum: "2", Sector: []string{"Finance"}, Role: []string{"Design"}}, "shared")
	_ = db.UpsertCase(CaseRow{Slug: "c", Title: "C", Checksum: "3", Sector: []string{"Health"}, Role: []string{"Research"}}, "shared")

	results, err := db.Search("shared", SearchOptions{Sector: []string{"Health", "Finance"}, Role: []string{"Design"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := map[string]bool{}
	for _, r := range results {
		got[r.Slug] = true
	}
	if len(got) != 2 || !got["a"] || !got["b"] {
		t.Errorf("results = %+v, want a and b", results)
	}
}

func TestSync_IndexesAndRemoves(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "one.mdx"), []byte("---\ntitle: One\ndate: 2023-05-01\n---\nbody\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "two.mdx"), []byte("---\ntitle: Two\ndraft: true\n---\n"), 0o644)

	if err := Sync(db, store, parser.NormalizeOptions{}, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n, _ := db.Count(true); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if n, _ := db.Count(false); n != 1 {
		t.Errorf("non-draft count = %d, want 1", n)
	}

	var sortKey int64
	_ = db.conn.QueryRow(`SELECT sort_key FROM cases WHERE slug = 'one'`).Scan(&sortKey)
	want := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC).Unix()
	if sortKey != want {
		t.Errorf("sort_key = %d, want %d", sortKey, want)
	}

	_ = os.Remove(filepath.Join(dir, "two.mdx"))
	if err := Sync(db, store, parser.NormalizeOptions{}, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("two"); cs != "" {
		t.Error("removed document still indexed")
	}
}
