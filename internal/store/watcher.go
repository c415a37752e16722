package store

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce window for file events; WAL checkpoints produce bursts.
const watchDebounce = 150 * time.Millisecond

type watcher struct {
	fw     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch starts a file watcher that republishes all collection snapshots
// when another process writes to the database. Safe to call once per store.
func (s *SQLite) Watch(ctx context.Context) error {
	if s.watcher != nil {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(s.path)); err != nil {
		_ = fw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{fw: fw, cancel: cancel, done: make(chan struct{})}
	s.watcher = w

	go s.watchLoop(ctx, w)
	return nil
}

func (s *SQLite) watchLoop(ctx context.Context, w *watcher) {
	defer close(w.done)
	defer w.fw.Close()

	base := filepath.Base(s.path)
	var pending *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			// Only the db file and its WAL sidecars matter.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			s.log.Debugw("external write detected, refreshing snapshots")
			s.RefreshAll()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			s.log.Warnw("file watcher error", "error", err)
		}
	}
}

func (w *watcher) stop() {
	w.cancel()
	<-w.done
}
