package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save
const DefaultDebounce = 500 * time.Millisecond

// Watch calls onChange whenever the file at path is written, created,
// replaced or removed. The parent directory is watched so that editors which
// save through a rename are still seen. Events arriving within debounce of
// each other are coalesced into a single onChange call, made once the file
// has been quiet for debounce. Watch returns once ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	log := util.ComponentLogger("watcher").WithValues("path", path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	log.V(1).Info("Watching file")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op == fsnotify.Chmod {
				continue
			}
			log.V(1).Info("File event", "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "Watcher error")
		case <-timer.C:
			onChange()
		}
	}
}

// Start runs Watch in the background and returns a function stopping it
func Start(path string, debounce time.Duration, onChange func()) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := Watch(ctx, path, debounce, onChange); err != nil {
			util.ComponentLogger("watcher").Error(err, "Watching failed", "path", path)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
