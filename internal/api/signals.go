package api

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// StopWatcher watches the .fable/signals directory for a kill file so an
// in-flight generation can be cancelled from outside the process (for
// example by another terminal). The watcher is best-effort: if fsnotify is
// unavailable, ShouldStop falls back to polling the file directly.
type StopWatcher struct {
	signalsDir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStopWatcher creates a stop watcher rooted at dir (typically the working
// directory). The .fable/signals directory is created if missing.
func NewStopWatcher(dir string) (*StopWatcher, error) {
	signalsDir := filepath.Join(dir, ".fable", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	// A kill file left behind by an earlier run must not cancel this one.
	os.Remove(filepath.Join(signalsDir, "kill"))

	sw := &StopWatcher{
		signalsDir: signalsDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - ShouldStop polls as a fallback.
		return sw, nil
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		return sw, nil
	}
	sw.watcher = watcher

	go sw.watch()

	return sw, nil
}

func (sw *StopWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "kill" &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sw.mu.Lock()
				sw.stopSignal = true
				sw.mu.Unlock()
			}
		case <-sw.watcher.Errors:
			// Ignore errors, keep watching.
		}
	}
}

// ShouldStop returns true once a kill signal has been received.
func (sw *StopWatcher) ShouldStop() bool {
	// Check the file directly in case the watcher missed it.
	killPath := filepath.Join(sw.signalsDir, "kill")
	if _, err := os.Stat(killPath); err == nil {
		sw.mu.Lock()
		sw.stopSignal = true
		sw.mu.Unlock()
	}

	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.stopSignal
}

// SendKill creates the kill signal file.
func (sw *StopWatcher) SendKill() error {
	return os.WriteFile(filepath.Join(sw.signalsDir, "kill"), []byte("stop"), 0644)
}

// Clear removes the kill file and resets the signal state.
func (sw *StopWatcher) Clear() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.stopSignal = false
	os.Remove(filepath.Join(sw.signalsDir, "kill"))
}

// Close shuts down the watcher.
func (sw *StopWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
