package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const resyncDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and imports changed
// Markdown files until ctx is cancelled.
//
// New directories are added to the watch list. Renames and new directories
// trigger a debounced Sync pass that picks up files whose events were missed.
func (im *Importer) Watch(ctx context.Context) error {
	root := im.files.Root()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	im.logger.Info("watcher: started", slog.String("root", root))

	var resyncTimer *time.Timer
	var resyncCh <-chan time.Time
	scheduleResync := func() {
		if resyncTimer == nil {
			resyncTimer = time.NewTimer(resyncDelay)
			resyncCh = resyncTimer.C
		} else {
			resyncTimer.Reset(resyncDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if resyncTimer != nil {
				resyncTimer.Stop()
			}
			im.logger.Info("watcher: stopped")
			return nil

		case <-resyncCh:
			st, err := im.Sync(ctx)
			if err != nil && ctx.Err() == nil {
				im.logger.Warn("watcher: resync failed", slog.String("error", err.Error()))
				continue
			}
			im.logger.Debug("watcher: resynced",
				slog.Int("created", st.Created), slog.Int("updated", st.Updated), slog.Int("failed", st.Failed))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						im.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					scheduleResync()
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				im.importPath(ctx, root, ev.Name)
			case ev.Op&fsnotify.Rename != 0:
				scheduleResync()
			case ev.Op&fsnotify.Remove != 0:
				im.logger.Debug("watcher: file removed, item kept", slog.String("path", ev.Name))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (im *Importer) importPath(ctx context.Context, root, abs string) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	data, err := im.files.Read(rel)
	if err != nil {
		im.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	outcome, err := im.ImportFile(ctx, rel, data)
	if err != nil {
		im.logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	im.logger.Debug("watcher: imported", slog.String("path", rel), slog.String("op", outcome))
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
