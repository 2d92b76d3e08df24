package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStopWatcher_KillAndClear(t *testing.T) {
	dir := t.TempDir()

	sw, err := NewStopWatcher(dir)
	if err != nil {
		t.Fatalf("NewStopWatcher failed: %v", err)
	}
	defer sw.Close()

	if sw.ShouldStop() {
		t.Fatal("fresh watcher should not report stop")
	}

	if err := sw.SendKill(); err != nil {
		t.Fatalf("SendKill failed: %v", err)
	}

	// ShouldStop polls the file directly, so no need to wait on fsnotify.
	deadline := time.Now().Add(time.Second)
	for !sw.ShouldStop() {
		if time.Now().After(deadline) {
			t.Fatal("ShouldStop never became true after SendKill")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sw.Clear()
	if sw.ShouldStop() {
		t.Error("ShouldStop should be false after Clear")
	}
}

func TestStopWatcher_ClearsStaleKillFileOnCreate(t *testing.T) {
	dir := t.TempDir()

	// A kill file left behind by a previous run.
	signalsDir := filepath.Join(dir, ".fable", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(signalsDir, "kill"), []byte("stop"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	sw, err := NewStopWatcher(dir)
	if err != nil {
		t.Fatalf("NewStopWatcher failed: %v", err)
	}
	defer sw.Close()

	if sw.ShouldStop() {
		t.Error("stale kill file should be cleared when the watcher starts")
	}
	if _, err := os.Stat(filepath.Join(signalsDir, "kill")); !os.IsNotExist(err) {
		t.Error("stale kill file should be removed from disk")
	}
}
