package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/casefolio/internal/apperr"
	"github.com/starford/casefolio/internal/models"
)

// DefaultExtension is the recognized content extension when none is configured.
const DefaultExtension = ".mdx"

var slugRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*(\.[A-Za-z0-9_-]+)*$`)

// ValidateSlug reports whether slug is a URL-safe document identifier.
func ValidateSlug(slug string) error {
	err := validation.Validate(slug,
		validation.Required,
		validation.Length(1, 200),
		validation.Match(slugRe),
	)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", apperr.ErrInvalidSlug, slug, err)
	}
	return nil
}

// FS implements Provider backed by a single flat directory.
type FS struct {
	root       string   // absolute path to content directory
	extensions []string // recognized extensions, first one is used for new documents
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. With no extensions, DefaultExtension is used.
func NewFS(root string, extensions ...string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	if len(exts) == 0 {
		exts = []string{DefaultExtension}
	}
	return &FS{root: abs, extensions: exts}, nil
}

// Root returns the absolute content directory.
func (f *FS) Root() string { return f.root }

// SlugFor maps a file name (base name or path) to its slug.
func (f *FS) SlugFor(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	lower := strings.ToLower(base)
	for _, ext := range f.extensions {
		if strings.HasSuffix(lower, ext) && len(base) > len(ext) {
			return base[:len(base)-len(ext)], true
		}
	}
	return "", false
}

// locate returns the absolute path of the existing document for slug.
// Extensions are probed in configured order.
func (f *FS) locate(slug string) (string, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	for _, ext := range f.extensions {
		p := filepath.Join(f.root, slug+ext)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("storage: %s: %w", slug, os.ErrNotExist)
}

// List returns metadata for every content document directly under root,
// sorted by slug. Subdirectories are not descended. Entries that vanish or
// cannot be stat'ed between the directory read and the lookup are left out;
// only a failure to read the directory itself is an error. Content is not
// read here, so one unreadable document never aborts a listing.
func (f *FS) List() ([]models.DocumentInfo, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	seen := make(map[string]struct{}, len(entries))
	var out []models.DocumentInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		slug, ok := f.SlugFor(e.Name())
		if !ok || ValidateSlug(slug) != nil {
			continue
		}
		// The first matching extension wins when both intake.mdx and intake.md exist.
		if _, dup := seen[slug]; dup {
			continue
		}
		p, err := f.locate(slug)
		if err != nil {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, models.DocumentInfo{
			Slug:      slug,
			Filename:  filepath.Base(p),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Read returns the raw bytes of the document for slug.
// A missing document yields an error wrapping os.ErrNotExist.
func (f *FS) Read(slug string) ([]byte, error) {
	p, err := f.locate(slug)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", slug, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
// An existing document keeps its extension; new ones get the primary extension.
func (f *FS) Write(slug string, content []byte) error {
	abs, err := f.locate(slug)
	if errors.Is(err, apperr.ErrInvalidSlug) {
		return err
	}
	if err != nil {
		abs = filepath.Join(f.root, slug+f.extensions[0])
	}

	tmp, err := os.CreateTemp(f.root, ".casefolio-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the document for slug.
func (f *FS) Delete(slug string) error {
	p, err := f.locate(slug)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("storage: delete %s: %w", slug, err)
	}
	return nil
}
