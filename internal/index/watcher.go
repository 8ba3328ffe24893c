package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/casefolio/internal/checksum"
	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/storage"
)

// Change kinds reported to an EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of KindCreated, KindUpdated, KindDeleted.
type EventCallback func(kind string, slug string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the content directory and processes
// change events until ctx is cancelled. It calls cb (if non-nil) after each
// successful index mutation.
//
// Editors that save through rename produce Rename/Remove on the old name;
// those trigger a debounced reconciliation pass against the directory.
func Watch(ctx context.Context, db *DB, store storage.Provider, opts parser.NormalizeOptions, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", store.Root()))

	notify := func(kind, slug string) {
		if cb != nil {
			cb(kind, slug)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, opts, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			slug, isContent := store.SlugFor(ev.Name)
			if !isContent || storage.ValidateSlug(slug) != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(slug)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("slug", slug), slog.String("error", readErr.Error()))
					continue
				}
				existing, _ := db.GetChecksum(slug)
				if idxErr := IndexDocument(db, slug, data, opts); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("slug", slug), slog.String("error", idxErr.Error()))
					continue
				}
				kind := KindUpdated
				if existing == "" {
					kind = KindCreated
				}
				logger.Debug("watcher: indexed", slog.String("slug", slug), slog.String("op", kind))
				notify(kind, slug)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// The same slug may still exist under another recognized
				// extension; reconciliation settles that.
				if _, readErr := store.Read(slug); readErr == nil {
					scheduleReconcile()
					continue
				}
				if delErr := db.DeleteCase(slug); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("slug", slug), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("slug", slug))
				notify(KindDeleted, slug)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes index entries without a document on disk and indexes
// documents whose checksum differs from the index.
func reconcile(db *DB, store storage.Provider, opts parser.NormalizeOptions, logger *slog.Logger, notify func(kind, slug string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	docs, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		disk[d.Slug] = struct{}{}
	}

	for slug := range checksums {
		if _, ok := disk[slug]; !ok {
			if delErr := db.DeleteCase(slug); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("slug", slug))
				notify(KindDeleted, slug)
			}
		}
	}

	for slug := range disk {
		data, readErr := store.Read(slug)
		if readErr != nil {
			logger.Debug("reconcile: read failed", slog.String("slug", slug), slog.String("error", readErr.Error()))
			continue
		}
		prev, known := checksums[slug]
		if known && prev == checksum.Sum(data) {
			continue
		}
		if idxErr := IndexDocument(db, slug, data, opts); idxErr == nil {
			kind := KindUpdated
			if !known {
				kind = KindCreated
			}
			logger.Debug("reconcile: indexed", slog.String("slug", slug), slog.String("op", kind))
			notify(kind, slug)
		}
	}
}
