// Package watch regenerates the digest after the vault changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last relevant event.
const DefaultDebounce = 500 * time.Millisecond

// Trigger runs once per quiet period with the vault-relative paths that changed.
type Trigger func(ctx context.Context, changed []string)

// Relevant reports whether a change to rel should cause a regeneration.
// The digest itself and anything under a dot-directory or named with a
// leading dot are ignored.
func Relevant(rel, destination string) bool {
	rel = filepath.ToSlash(rel)
	if !strings.HasSuffix(rel, ".md") || rel == destination {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return true
}

// Watch starts an fsnotify watcher on the vault root and calls trigger after
// bursts of relevant changes settle, until ctx is cancelled. Directories
// created at runtime are added to the watch list.
func Watch(ctx context.Context, vaultRoot, destination string, debounce time.Duration, logger *slog.Logger, trigger Trigger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot, nil); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot), slog.Duration("debounce", debounce))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending = make(map[string]struct{})
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			logger.Debug("watcher: regenerating", slog.Int("changed", len(changed)))
			trigger(ctx, changed)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if strings.HasPrefix(filepath.Base(ev.Name), ".") {
						continue
					}
					// A tree moved in whole produces no events for the files inside it.
					addErr := addDirsRecursive(w, ev.Name, func(file string) {
						if rel, err := filepath.Rel(vaultRoot, file); err == nil && Relevant(rel, destination) {
							pending[filepath.ToSlash(rel)] = struct{}{}
						}
					})
					if addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					if len(pending) > 0 {
						schedule()
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, ev.Name)
			if relErr != nil || !Relevant(rel, destination) {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and its subdirectories, skipping dot-directories.
// onFile, when set, receives every regular file found on the way.
func addDirsRecursive(w *fsnotify.Watcher, root string, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if onFile != nil && d.Type().IsRegular() {
				onFile(path)
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
