package policy

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the store when the process receives SIGHUP and, with
// watchFile set, when its file changes. It blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, watchFile bool, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var events chan fsnotify.Event
	var errs chan error
	if watchFile && s.path != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create policy watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory so editors that replace the file are seen.
		if err := watcher.Add(filepath.Dir(s.path)); err != nil {
			return fmt.Errorf("watch %s: %w", s.path, err)
		}
		events = watcher.Events
		errs = watcher.Errors
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			s.reloadAndLog(log, "sighup")
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.reloadAndLog(log, "file change")
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Warn("policy watcher error", zap.Error(err))
		}
	}
}

func (s *Store) reloadAndLog(log *zap.Logger, trigger string) {
	if err := s.Reload(); err != nil {
		log.Error("policy reload failed, keeping previous thresholds",
			zap.String("trigger", trigger), zap.String("path", s.path), zap.Error(err))
		return
	}
	log.Info("policy thresholds reloaded",
		zap.String("trigger", trigger), zap.String("path", s.path))
}
