package config

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads the config file when its content changes. Saves that
// leave the bytes unchanged do not trigger a reload.
type Watcher struct {
	path     string
	onReload func(*Config)

	mu    sync.Mutex
	timer *time.Timer
	sum   [sha256.Size]byte

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewWatcher(path string, onReload func(*Config)) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		stop:     make(chan struct{}),
	}
}

// Start watches the directory of the file, since editors often save by
// replacing it, until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if data, err := os.ReadFile(w.path); err == nil {
		w.sum = sha256.Sum256(data)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fsw.Close()
		defer w.cancelPending()

		slog.Debug("config watcher started", "path", w.path)
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == w.path && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					w.schedule()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// Mid-replace; the Create event that follows schedules again.
		slog.Debug("config file not readable yet", "path", w.path, "error", err)
		return
	}
	sum := sha256.Sum256(data)
	w.mu.Lock()
	unchanged := sum == w.sum
	w.sum = sum
	w.mu.Unlock()
	if unchanged {
		slog.Debug("config file saved without changes", "path", w.path)
		return
	}

	slog.Info("config file changed, reloading", "path", w.path)
	cfg, err := Load(w.path)
	if err != nil {
		slog.Error("config reload failed", "path", w.path, "error", err)
		return
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
