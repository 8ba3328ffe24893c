// Package caseservice is the content loader: it reads case documents from
// storage, normalizes their metadata and keeps the search index in step
// with authoring operations.
package caseservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/casefolio/internal/apperr"
	"github.com/starford/casefolio/internal/checksum"
	"github.com/starford/casefolio/internal/filter"
	"github.com/starford/casefolio/internal/index"
	"github.com/starford/casefolio/internal/models"
	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/storage"
)

// CaseDetail is a single case together with its content checksum.
type CaseDetail struct {
	models.CaseEntry
	Checksum string `json:"checksum"`
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     index.CaseIndex
	opts   parser.NormalizeOptions
	logger *slog.Logger
}

// NewService creates a new case service. db may be nil when search and
// authoring index updates are not needed.
func NewService(store storage.Provider, db index.CaseIndex, opts parser.NormalizeOptions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, db: db, opts: opts, logger: logger}
}

// Options returns the normalization options in effect.
func (s *Service) Options() parser.NormalizeOptions { return s.opts }

// ListCases reads every document from disk and returns the non-draft cases
// newest first. Unreadable documents are logged and skipped.
func (s *Service) ListCases(ctx context.Context) ([]models.CaseMeta, error) {
	docs, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("caseservice: list: %w", err)
	}

	out := make([]models.CaseMeta, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.store.Read(d.Slug)
		if err != nil {
			s.logger.Warn("caseservice: skip unreadable document", slog.String("slug", d.Slug), slog.String("error", err.Error()))
			continue
		}
		meta, _, err := s.decode(d.Slug, data)
		if err != nil {
			s.logger.Warn("caseservice: skip unparseable document", slog.String("slug", d.Slug), slog.String("error", err.Error()))
			continue
		}
		if meta.Draft {
			continue
		}
		out = append(out, meta)
	}

	parser.SortNewestFirst(out)
	return out, nil
}

// GetCase returns one non-draft case with its body. Invalid, missing and
// draft slugs all report apperr.ErrNotFound.
func (s *Service) GetCase(_ context.Context, slug string) (*CaseDetail, error) {
	if storage.ValidateSlug(slug) != nil {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(slug)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	meta, body, err := s.decode(slug, data)
	if err != nil {
		return nil, err
	}
	if meta.Draft {
		return nil, apperr.ErrNotFound
	}
	return &CaseDetail{
		CaseEntry: models.CaseEntry{CaseMeta: meta, Content: body},
		Checksum:  checksum.Sum(data),
	}, nil
}

// Split separates featured cases from the rest, keeping the listing order.
func Split(cases []models.CaseMeta) (featured, others []models.CaseMeta) {
	featured = []models.CaseMeta{}
	others = []models.CaseMeta{}
	for _, c := range cases {
		if c.Featured {
			featured = append(featured, c)
		} else {
			others = append(others, c)
		}
	}
	return featured, others
}

// Vocabulary returns the tag vocabulary of every dimension across the
// current listing.
func (s *Service) Vocabulary(ctx context.Context) (map[string][]string, error) {
	cases, err := s.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Vocabularies(cases), nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, opts index.SearchOptions) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, errors.New("caseservice: search index not configured")
	}
	return s.db.Search(query, opts)
}

// CreateCase writes a new document and indexes it.
func (s *Service) CreateCase(ctx context.Context, slug string, content []byte) (*CaseDetail, error) {
	if err := storage.ValidateSlug(slug); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(slug); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(slug, content); err != nil {
		return nil, err
	}
	s.index(slug, content)
	return s.detail(slug, content)
}

// UpdateCase replaces a document with optimistic concurrency: a non-empty
// ifMatch must match the stored checksum or apperr.ErrConflict is returned.
func (s *Service) UpdateCase(_ context.Context, slug string, content []byte, ifMatch string) (*CaseDetail, error) {
	if err := storage.ValidateSlug(slug); err != nil {
		return nil, err
	}
	existing, err := s.store.Read(slug)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && !checksum.Match(ifMatch, existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(slug, content); err != nil {
		return nil, err
	}
	s.index(slug, content)
	return s.detail(slug, content)
}

// DeleteCase removes a document from storage and index.
func (s *Service) DeleteCase(_ context.Context, slug string) error {
	if err := storage.ValidateSlug(slug); err != nil {
		return err
	}
	if err := s.store.Delete(slug); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if s.db != nil {
		return s.db.DeleteCase(slug)
	}
	return nil
}

func (s *Service) decode(slug string, data []byte) (models.CaseMeta, string, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return models.CaseMeta{}, "", err
	}
	return parser.Normalize(slug, res.Frontmatter, s.opts), res.Body, nil
}

// index updates the search index. The document is already on disk, so a
// failure here is logged rather than returned; the watcher or the next
// sync will catch up.
func (s *Service) index(slug string, content []byte) {
	if s.db == nil {
		return
	}
	if err := index.IndexDocument(s.db, slug, content, s.opts); err != nil {
		s.logger.Warn("caseservice: index failed", slog.String("slug", slug), slog.String("error", err.Error()))
	}
}

// detail builds the authoring response. Drafts are returned too so the
// author sees what was written.
func (s *Service) detail(slug string, data []byte) (*CaseDetail, error) {
	meta, body, err := s.decode(slug, data)
	if err != nil {
		return nil, err
	}
	return &CaseDetail{
		CaseEntry: models.CaseEntry{CaseMeta: meta, Content: body},
		Checksum:  checksum.Sum(data),
	}, nil
}
