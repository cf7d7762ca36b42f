package templates

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/storage"
)

// StartWatching subscribes to change notifications for the watched folder
// and schedules debounced reloads for relevant events. Calling it while a
// watch is already active is a no-op.
func (ix *Index) StartWatching(ctx context.Context) error {
	ix.watchMu.Lock()
	defer ix.watchMu.Unlock()

	if ix.watchCancel != nil {
		return nil
	}
	if ix.notifier == nil {
		return apperr.ErrPathNotConfigured
	}
	folder := ix.Folder()
	if folder == "" {
		return apperr.ErrPathNotConfigured
	}

	wctx, cancel := context.WithCancel(ctx)
	events, err := ix.notifier.Subscribe(wctx, folder)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	ix.watchCancel = cancel
	ix.watchDone = done

	go ix.watchLoop(wctx, events, done)

	ix.logger.Info("watcher: started", slog.String("folder", folder))
	return nil
}

// StopWatching cancels any pending debounced reload and unsubscribes.
// Idempotent.
func (ix *Index) StopWatching() {
	ix.watchMu.Lock()
	cancel, done := ix.watchCancel, ix.watchDone
	ix.watchCancel = nil
	ix.watchDone = nil
	ix.watchMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	ix.logger.Info("watcher: stopped")
}

// Dispose releases the index's watch resources. Equivalent to StopWatching.
func (ix *Index) Dispose() {
	ix.StopWatching()
}

// Reload runs a fresh load. When notify is true, the change callback fires
// after the load so UI surfaces can announce the result.
func (ix *Index) Reload(ctx context.Context, notify bool) *Snapshot {
	snap := ix.Load(ctx)
	if notify {
		ix.notifyChange("reloaded")
	}
	return snap
}

func (ix *Index) notifyChange(kind string) {
	ix.mu.Lock()
	cb := ix.onChange
	folder := ix.folder
	ix.mu.Unlock()
	if cb != nil {
		cb(kind, folder)
	}
}

// watchLoop consumes change events until ctx is cancelled. Bursts of
// events collapse into one reload through a single trailing-edge debounce
// timer: scheduling while a timer is pending resets it, and there is no
// leading call.
func (ix *Index) watchLoop(ctx context.Context, events <-chan storage.Event, done chan<- struct{}) {
	defer close(done)

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	schedule := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(ix.debounce)
			reloadCh = reloadTimer.C
			return
		}
		// Drain a tick that fired between select rounds so the reset
		// window cannot be cut short by the stale one.
		if !reloadTimer.Stop() {
			select {
			case <-reloadCh:
			default:
			}
		}
		reloadTimer.Reset(ix.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return

		case <-reloadCh:
			ix.Load(ctx)
			ix.notifyChange("reloaded")

		case ev, ok := <-events:
			if !ok {
				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				return
			}
			ix.handleEvent(ev, schedule)
		}
	}
}

// handleEvent decides whether ev is relevant and schedules a debounced
// reload if so. A rename of the watched folder itself retargets the
// tracked path in place, so later containment checks use the new
// location; a rename of a file inside the folder is an ordinary change.
func (ix *Index) handleEvent(ev storage.Event, schedule func()) {
	folder := ix.Folder()

	if ev.Op == storage.OpRename && ev.OldPath != "" && normalizePath(ev.OldPath) == folder {
		if ev.Path != "" && ev.IsDir {
			ix.setFolder(ev.Path)
			ix.logger.Info("watcher: folder renamed",
				slog.String("old", ev.OldPath),
				slog.String("new", ev.Path))
		}
		schedule()
		return
	}

	p := ev.Path
	if p == "" {
		p = ev.OldPath
	}
	if !pathWithin(folder, p) {
		return
	}

	ix.logger.Debug("watcher: change",
		slog.String("op", ev.Op.String()),
		slog.String("path", p))
	schedule()
}
