package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reelsearch/internal/metrics"
)

// Rebuilder produces a fresh snapshot.
type Rebuilder interface {
	Build(ctx context.Context) (*Snapshot, error)
}

// Watcher rebuilds the snapshot when a source file changes. Bursts of events are
// coalesced by a debounce window. A failed rebuild keeps the current snapshot.
type Watcher struct {
	holder   *Holder
	builder  Rebuilder
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher watches the given files. Empty paths are ignored.
func NewWatcher(holder *Holder, builder Rebuilder, paths []string, debounce time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		holder:   holder,
		builder:  builder,
		files:    make(map[string]struct{}),
		debounce: debounce,
		logger:   logger,
	}
	seen := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		w.files[clean] = struct{}{}
		dir := filepath.Dir(clean)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// Run blocks until ctx is done. Parent directories are watched so that
// atomic replace-by-rename writes are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.logger.Info("watching entity sources", zap.Strings("dirs", w.dirs))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			w.Reload(ctx)
		}
	}
}

// Reload rebuilds and swaps the snapshot unless the rebuild degraded.
func (w *Watcher) Reload(ctx context.Context) {
	snap, err := w.builder.Build(ctx)
	if err != nil {
		metrics.SnapshotReloadsTotal.WithLabelValues("error").Inc()
		w.logger.Error("snapshot reload failed, keeping current", zap.Error(err))
		return
	}
	w.holder.Store(snap)
	metrics.SnapshotReloadsTotal.WithLabelValues("ok").Inc()
	w.logger.Info("snapshot reloaded",
		zap.Int("dictionary_entries", snap.Dictionary.Len()),
		zap.Int("profiles", snap.Profiles.Len()),
	)
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[filepath.Clean(ev.Name)]
	return ok
}
