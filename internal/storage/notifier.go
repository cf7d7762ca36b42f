package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FSNotifier implements Notifier over fsnotify for an FS provider.
// Directories created under the watched root at runtime are added to the
// watch list automatically.
type FSNotifier struct {
	fs     *FS
	logger *slog.Logger
}

// NewFSNotifier creates a notifier delivering events for paths under the
// provider's root.
func NewFSNotifier(fsys *FS, logger *slog.Logger) *FSNotifier {
	return &FSNotifier{fs: fsys, logger: logger}
}

// Subscribe starts an fsnotify watcher on root (relative to the provider
// root) and streams translated events until ctx is cancelled. fsnotify
// reports a rename through its old path only; the new path, if it stays
// inside the tree, arrives as a separate create event.
func (n *FSNotifier) Subscribe(ctx context.Context, root string) (<-chan Event, error) {
	abs, err := n.fs.safePath(root)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage: create watcher: %w", err)
	}
	if err := addDirsRecursive(w, abs); err != nil {
		w.Close()
		return nil, fmt.Errorf("storage: watch %s: %w", root, err)
	}

	out := make(chan Event, 64)
	go n.run(ctx, w, out)
	return out, nil
}

func (n *FSNotifier) run(ctx context.Context, w *fsnotify.Watcher, out chan<- Event) {
	defer close(out)
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(n.fs.root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			isDir := false
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					isDir = true
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						n.logger.Warn("notifier: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					}
				}
			}

			e := Event{Path: rel, IsDir: isDir}
			switch {
			case ev.Op&fsnotify.Create != 0:
				e.Op = OpCreate
			case ev.Op&fsnotify.Write != 0:
				e.Op = OpWrite
			case ev.Op&fsnotify.Remove != 0:
				e.Op = OpRemove
			case ev.Op&fsnotify.Rename != 0:
				e.Op = OpRename
				e.OldPath = rel
				e.Path = ""
			default:
				continue
			}

			select {
			case out <- e:
			case <-ctx.Done():
				return
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return
			}
			n.logger.Error("notifier: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
