package assets

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// UploadDir is the sub-directory of the public dir that receives uploads.
const UploadDir = "uploads"

// ErrInvalidName is returned for asset paths that escape the public dir.
var ErrInvalidName = errors.New("invalid asset name")

// Saved describes a stored upload.
type Saved struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Path     string `json:"path"` // site path, the form documents reference
	URL      string `json:"url"`  // where the API serves the file
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Library is the public directory plus an in-memory manifest kept current
// as uploads arrive.
type Library struct {
	root   string
	logger *slog.Logger

	mu       sync.RWMutex
	manifest Manifest
}

// NewLibrary scans root and returns a ready library. root is created if
// it does not exist.
func NewLibrary(root string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("assets: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("assets: mkdir root: %w", err)
	}
	l := &Library{root: abs, logger: logger}
	if err := l.Refresh(); err != nil {
		return nil, err
	}
	return l, nil
}

// Root returns the absolute public directory.
func (l *Library) Root() string { return l.root }

// Refresh rescans the public directory.
func (l *Library) Refresh() error {
	m, err := Scan(l.root, l.logger)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.manifest = m
	l.mu.Unlock()
	return nil
}

// Manifest returns a copy of the current manifest.
func (l *Library) Manifest() Manifest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(Manifest, len(l.manifest))
	for k, v := range l.manifest {
		out[k] = v
	}
	return out
}

// Lookup returns the recorded size for a site path.
func (l *Library) Lookup(src string) (Size, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manifest.Lookup(src)
}

// Resolve maps a site-relative asset path to an absolute file path under
// the public dir, rejecting traversal and hidden segments.
func (l *Library) Resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if rel == "" {
		return "", ErrInvalidName
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" || seg == "." || seg == ".." || strings.HasPrefix(seg, ".") {
			return "", fmt.Errorf("%w: %s", ErrInvalidName, rel)
		}
	}
	abs := filepath.Join(l.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(abs, l.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidName, rel)
	}
	return abs, nil
}

// uploadName picks the stored name for an upload. A usable client name is
// kept; anything else gets a random name with the original extension.
func uploadName(name string) string {
	base := filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/")))
	if base == "." || base == "/" || strings.HasPrefix(base, ".") || strings.ContainsAny(base, " /\\") {
		return uuid.NewString() + strings.ToLower(filepath.Ext(base))
	}
	return base
}

// Save stores an upload under UploadDir and records its size when it is
// a decodable image. An existing file with the same name gets a random
// name instead of being overwritten.
func (l *Library) Save(name string, r io.Reader) (*Saved, error) {
	dir := filepath.Join(l.root, UploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: mkdir uploads: %w", err)
	}

	filename := uploadName(name)
	dst, err := os.OpenFile(filepath.Join(dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		filename = uuid.NewString() + strings.ToLower(filepath.Ext(filename))
		dst, err = os.OpenFile(filepath.Join(dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return nil, fmt.Errorf("assets: create: %w", err)
	}

	written, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("assets: write: %w", err)
	}

	site := SitePath(filepath.Join(UploadDir, filename))
	saved := &Saved{Filename: filename, Size: written, Path: site, URL: "/assets" + site}
	if IsImage(filename) {
		if size, err := measure(dst.Name()); err == nil {
			l.mu.Lock()
			l.manifest[site] = size
			l.mu.Unlock()
			saved.Width, saved.Height = size.Width, size.Height
		} else {
			l.logger.Warn("assets: uploaded image not decodable", slog.String("file", filename), slog.String("error", err.Error()))
		}
	}
	return saved, nil
}
