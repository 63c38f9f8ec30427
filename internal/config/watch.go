package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay debounces bursts of writes from editors.
const reloadDelay = 500 * time.Millisecond

// Watch reloads file whenever it changes and passes the new configuration to
// onChange. Invalid revisions are logged and skipped. The returned function
// stops the watcher.
func Watch(file string, logger *zap.Logger, onChange func(*Config)) (func() error, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory so atomic renames by editors are seen.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	var mu sync.Mutex
	var pending *time.Timer
	reload := func() {
		cfg, err := Load(abs)
		if err != nil {
			logger.Error("config reload failed", zap.String("file", abs), zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("file", abs))
		onChange(cfg)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(reloadDelay, reload)
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("config watcher error", zap.Error(err))
			}
		}
	}()

	return func() error {
		err := w.Close()
		<-done
		mu.Lock()
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
		return err
	}, nil
}
