package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

type WatchConfig struct {
	Dir         string        // watched non-recursively
	InitialScan bool          // if true, emit files already present first
	Debounce    time.Duration // coalesce rapid create/write bursts per file
	Logger      *slog.Logger
}

// StartWatcher emits a Document for every allowed file created, written or
// renamed into cfg.Dir. Each path is emitted at most once until it is removed.
// Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan entity.Document, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		logger.Error("ingest.watch.start_failed", "error", "no directory provided")
		return nil, nil, errors.New("no directory provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Dir); err != nil {
		logger.Error("ingest.watch.add_failed", "dir", cfg.Dir, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	var initial []entity.Document
	if cfg.InitialScan {
		initial, err = ScanDirectory(cfg.Dir)
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
	}

	docCh := make(chan entity.Document, 64)
	errCh := make(chan error, 1)
	logger.Info("ingest.watch.started", "dir", cfg.Dir, "initial", len(initial), "debounce", cfg.Debounce)

	go func() {
		defer close(docCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_error", "error", err)
			}
		}()

		emit := func(d entity.Document) bool {
			select {
			case docCh <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}
		seen := make(map[string]struct{}, len(initial))
		for _, d := range initial {
			seen[filepath.Clean(d.Path)] = struct{}{}
			if !emit(d) {
				return
			}
		}

		pending := map[string]struct{}{}
		var timer *time.Timer
		var fire <-chan time.Time

		flush := func() bool {
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				info, err := os.Stat(p)
				if err != nil {
					// renamed away before the flush
					delete(seen, p)
					continue
				}
				if !info.Mode().IsRegular() {
					continue
				}
				if _, dup := seen[p]; dup {
					logger.Debug("ingest.watch.skip_seen", "path", p)
					continue
				}
				seen[p] = struct{}{}
				logger.Debug("ingest.watch.emit", "path", p)
				if !emit(entity.NewDocument(p)) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !allowedPath(e.Name) {
					continue
				}
				name := filepath.Clean(e.Name)
				if e.Op.Has(fsnotify.Remove) {
					// a file dropped again under the same name is a new document
					delete(seen, name)
					delete(pending, name)
					continue
				}
				if !e.Op.Has(fsnotify.Create) && !e.Op.Has(fsnotify.Write) && !e.Op.Has(fsnotify.Rename) {
					continue
				}
				pending[name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(cfg.Debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return docCh, errCh, nil
}
