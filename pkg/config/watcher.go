package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the config file for changes and reloads the config
// manager when modifications are detected, so operational settings like
// the log level can change without a restart.
type Watcher struct {
	manager *Manager
	path    string

	// watcher is the fsnotify file watcher
	watcher *fsnotify.Watcher

	// debounceDelay coalesces rapid successive writes into one reload
	debounceDelay time.Duration

	// onReload is invoked with the fresh config after a successful reload
	onReload func(Config)

	logger zerolog.Logger

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a config file watcher. onReload may be nil.
func NewWatcher(manager *Manager, path string, onReload func(Config), logger zerolog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		manager:       manager,
		path:          path,
		watcher:       watcher,
		debounceDelay: 100 * time.Millisecond,
		onReload:      onReload,
		logger:        logger.With().Str("component", "config.watcher").Logger(),
	}, nil
}

// Start begins watching the config file for changes. It blocks until
// the context is cancelled, so run it on its own goroutine:
//
//	go watcher.Start(ctx)
func (w *Watcher) Start(ctx context.Context) error {
	// fsnotify watches directories, not files, so watch the parent and
	// filter events down to the config file itself.
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)

	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error().Err(err).Str("dir", dir).Msg("failed to watch config directory")
		return err
	}

	w.logger.Debug().Str("file", w.path).Msg("watching config file")

	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

// scheduleReload arms the debounce timer; an already-armed timer is
// reset so rapid writes collapse into a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	if err := w.manager.Load(&FileSource{Path: w.path}); err != nil {
		w.logger.Error().Err(err).Msg("config reload failed")
		return
	}

	cfg := w.manager.Get()
	w.logger.Info().Str("file", w.path).Msg("config reloaded")

	if w.onReload != nil {
		w.onReload(cfg)
	}
}
