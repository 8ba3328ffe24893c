package caseservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/casefolio/internal/apperr"
	"github.com/starford/casefolio/internal/checksum"
	"github.com/starford/casefolio/internal/index"
	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/storage"
	"github.com/starford/casefolio/internal/testutil"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir, store := testutil.TestContent(t)
	db := testutil.TestDB(t)
	return NewService(store, db, parser.NormalizeOptions{}, nil), dir
}

func TestListCases_DraftsExcludedAndEachOnce(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteCase(t, dir, "alpha", "---\ntitle: Alpha\ndate: 2023-06-01\n---\n")
	testutil.WriteCase(t, dir, "beta", "---\ntitle: Beta\ndate: 2024-01-01\n---\n")
	testutil.WriteCase(t, dir, "secret", "---\ntitle: Secret\ndraft: true\n---\n")
	testutil.WriteCase(t, dir, "loose", "---\ntitle: Loose\ndraft: \"true\"\n---\n")

	cases, err := svc.ListCases(context.Background())
	require.NoError(t, err)

	var got []string
	for _, c := range cases {
		got = append(got, c.Slug)
	}
	// Only boolean true hides a case; "true" the string does not.
	assert.Equal(t, []string{"beta", "alpha", "loose"}, got)
}

func TestListCases_YearStringSortsAsJanuaryFirst(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteCase(t, dir, "old", "---\ntitle: Old\nyear: \"2022\"\n---\n")
	testutil.WriteCase(t, dir, "mid", "---\ntitle: Mid\ndate: 2022-03-01\n---\n")

	cases, err := svc.ListCases(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "mid", cases[0].Slug)
	assert.Equal(t, "2022", cases[1].YearLabel)
	require.NotNil(t, cases[1].Year)
	assert.Equal(t, 2022, *cases[1].Year)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), parser.Timestamp(cases[1]))
}

func TestListCases_InvalidYAMLStillListed(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteCase(t, dir, "broken", "---\ntitle: [unclosed\n---\nbody\n")

	cases, err := svc.ListCases(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "broken", cases[0].Slug)
	assert.Empty(t, cases[0].Title)
	assert.Nil(t, cases[0].Sector)
}

// failingReads wraps a Provider and fails Read for the listed slugs.
type failingReads struct {
	storage.Provider
	bad map[string]bool
}

func (f failingReads) Read(slug string) ([]byte, error) {
	if f.bad[slug] {
		return nil, fmt.Errorf("read %s: %w", slug, os.ErrPermission)
	}
	return f.Provider.Read(slug)
}

func TestListCases_UnreadableSkipped(t *testing.T) {
	dir, store := testutil.TestContent(t)
	testutil.WriteCase(t, dir, "ok", "---\ntitle: OK\n---\n")
	testutil.WriteCase(t, dir, "locked", "---\ntitle: Locked\n---\n")
	svc := NewService(failingReads{Provider: store, bad: map[string]bool{"locked": true}},
		testutil.TestDB(t), parser.NormalizeOptions{}, nil)

	cases, err := svc.ListCases(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "ok", cases[0].Slug)
}

func TestGetCase(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteCase(t, dir, "intake", "---\ntitle: Intake\nsector: Health\n---\n# Body\n")
	testutil.WriteCase(t, dir, "wip", "---\ntitle: WIP\ndraft: true\n---\n")

	c, err := svc.GetCase(context.Background(), "intake")
	require.NoError(t, err)
	assert.Equal(t, "Intake", c.Title)
	assert.Equal(t, []string{"Health"}, c.Sector)
	assert.Equal(t, "# Body\n", c.Content)
	assert.NotEmpty(t, c.Checksum)

	for _, slug := range []string{"wip", "missing", "../etc/passwd", ""} {
		_, err := svc.GetCase(context.Background(), slug)
		assert.ErrorIs(t, err, apperr.ErrNotFound, "slug %q", slug)
	}
}

func TestSplit(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteCase(t, dir, "a", "---\nfeatured: true\ndate: 2024-02-01\n---\n")
	testutil.WriteCase(t, dir, "b", "---\ndate: 2024-01-01\n---\n")
	testutil.WriteCase(t, dir, "c", "---\nfeatured: true\ndate: 2023-01-01\n---\n")

	cases, err := svc.ListCases(context.Background())
	require.NoError(t, err)
	featured, others := Split(cases)
	require.Len(t, featured, 2)
	assert.Equal(t, "a", featured[0].Slug)
	assert.Equal(t, "c", featured[1].Slug)
	require.Len(t, others, 1)
	assert.Equal(t, "b", others[0].Slug)
}

func TestVocabulary(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteCase(t, dir, "a", "---\nsector: [Health, Finance]\nrole: Lead\n---\n")
	testutil.WriteCase(t, dir, "b", "---\nsector: Health\ncategory: Product\n---\n")
	testutil.WriteCase(t, dir, "d", "---\nsector: Hidden\ndraft: true\n---\n")

	vocab, err := svc.Vocabulary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance", "Health"}, vocab["sector"])
	assert.Equal(t, []string{"Product"}, vocab["category"])
	assert.Equal(t, []string{"Lead"}, vocab["role"])
}

func TestCreateUpdateDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCase(ctx, "new-case", []byte("---\ntitle: First\n---\nsearchable body\n"))
	require.NoError(t, err)
	assert.Equal(t, "First", created.Title)

	_, err = svc.CreateCase(ctx, "new-case", []byte("dup"))
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	hits, err := svc.Search(ctx, "searchable", index.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new-case", hits[0].Slug)

	_, err = svc.UpdateCase(ctx, "new-case", []byte("---\ntitle: Stale\n---\n"), `"deadbeef"`)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	updated, err := svc.UpdateCase(ctx, "new-case", []byte("---\ntitle: Second\n---\n"), checksum.ETag([]byte("---\ntitle: First\n---\nsearchable body\n")))
	require.NoError(t, err)
	assert.Equal(t, "Second", updated.Title)

	_, err = svc.UpdateCase(ctx, "absent", []byte("x"), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.DeleteCase(ctx, "new-case"))
	_, err = svc.GetCase(ctx, "new-case")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCase(ctx, "new-case"), apperr.ErrNotFound)
}

func TestCreateCase_InvalidSlug(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateCase(context.Background(), "../escape", []byte("x"))
	assert.True(t, errors.Is(err, apperr.ErrInvalidSlug))
}

func TestSearchWithoutIndex(t *testing.T) {
	_, store := testutil.TestContent(t)
	svc := NewService(store, nil, parser.NormalizeOptions{}, nil)
	_, err := svc.Search(context.Background(), "x", index.SearchOptions{})
	assert.Error(t, err)
}
