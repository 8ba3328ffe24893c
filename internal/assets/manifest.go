// Package assets manages the public image directory: the width/height
// manifest used to size images before they load, and uploaded files.
package assets

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/webp"
)

// Size is the pixel size of one image.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Manifest maps a site path ("/images/cover.png") to its size.
type Manifest map[string]Size

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsImage reports whether name has an extension the manifest measures.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Scan walks dir recursively and measures every image it can decode.
// Files that fail to decode are logged and left out.
func Scan(dir string, logger *slog.Logger) (Manifest, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(Manifest)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsImage(d.Name()) {
			return nil
		}
		size, err := measure(p)
		if err != nil {
			logger.Warn("assets: skip image", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		m[SitePath(rel)] = size
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assets: scan: %w", err)
	}
	return m, nil
}

// SitePath turns a path relative to the public dir into a site path.
func SitePath(rel string) string {
	return path.Clean("/" + filepath.ToSlash(rel))
}

func measure(p string) (Size, error) {
	f, err := os.Open(p)
	if err != nil {
		return Size{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// Lookup returns the size recorded for src. Query strings and fragments
// are ignored.
func (m Manifest) Lookup(src string) (Size, bool) {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	s, ok := m[src]
	return s, ok
}

// Paths returns the manifest keys in sorted order.
func (m Manifest) Paths() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load reads a manifest written by Save. A missing file yields an empty
// manifest.
func Load(file string) (Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("assets: read manifest: %w", err)
	}
	m := Manifest{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("assets: decode manifest: %w", err)
	}
	return m, nil
}

// Save writes the manifest as indented JSON.
func (m Manifest) Save(file string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("assets: encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("assets: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(file), ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("assets: create temp: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("assets: write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), file)
}
