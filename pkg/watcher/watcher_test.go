package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitChanged(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Changed():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherDetectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ui: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("ui:\n  date_layout: 02 Jan 2006\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitChanged(t, w, 3*time.Second) {
		t.Fatalf("no change reported (polling=%v)", w.IsPolling())
	}
}

func TestWatcherPollingSeesCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	w, err := New(path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounce(10*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.IsPolling() {
		t.Fatalf("expected polling mode")
	}

	if err := os.WriteFile(path, []byte("api: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitChanged(t, w, 2*time.Second) {
		t.Fatalf("created file not reported")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	w, err := New(path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.IsPolling() {
		t.Skip("fsnotify unavailable")
	}

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if waitChanged(t, w, 200*time.Millisecond) {
		t.Fatalf("sibling write should not be reported")
	}
}

func TestWatcherStartStop(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Fatalf("Path() = %q, want absolute", w.Path())
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Fatalf("second Start = %v, want ErrAlreadyStarted", err)
	}
	w.Stop()
	w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	w.Stop()
}

func TestEnvForcePoll(t *testing.T) {
	t.Setenv("PI_FORCE_POLL", "yes")
	w, err := New(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.IsPolling() {
		t.Fatalf("PI_FORCE_POLL should force polling")
	}
}
