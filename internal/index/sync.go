package index

import (
	"log/slog"

	"github.com/starford/casefolio/internal/checksum"
	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/storage"
)

// Sync walks the content directory and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, opts parser.NormalizeOptions, logger *slog.Logger) error {
	docs, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		disk[d.Slug] = struct{}{}

		data, err := store.Read(d.Slug)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("slug", d.Slug), slog.String("error", err.Error()))
			continue
		}
		if checksums[d.Slug] == checksum.Sum(data) {
			continue
		}
		if err := IndexDocument(db, d.Slug, data, opts); err != nil {
			logger.Warn("sync: index failed", slog.String("slug", d.Slug), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("slug", d.Slug))
		}
	}

	for slug := range checksums {
		if _, ok := disk[slug]; !ok {
			if err := db.DeleteCase(slug); err != nil {
				logger.Warn("sync: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("slug", slug))
			}
		}
	}

	return nil
}

// IndexDocument parses raw document bytes and upserts them under slug.
// Drafts are indexed with the draft flag so that change detection still works.
func IndexDocument(db CaseIndex, slug string, data []byte, opts parser.NormalizeOptions) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	meta := parser.Normalize(slug, res.Frontmatter, opts)
	return db.UpsertCase(CaseRow{
		Slug:     slug,
		Title:    meta.Title,
		Summary:  meta.Summary,
		Checksum: checksum.Sum(data),
		Sector:   meta.Sector,
		Category: meta.Category,
		Role:     meta.Role,
		Draft:    meta.Draft,
		SortKey:  parser.Timestamp(meta),
	}, res.Body)
}
