package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startDaemon(t *testing.T, d *Daemon) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	select {
	case <-d.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})
	return cancel
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, []string{"a.jsonl"}, Config{}); err == nil {
		t.Error("expected error for nil run func")
	}
	if _, err := New(func(context.Context) error { return nil }, nil, Config{}); err == nil {
		t.Error("expected error for empty file list")
	}
}

func TestDaemon_TinyDebounce(t *testing.T) {
	dir := t.TempDir()
	concepts := filepath.Join(dir, "concepts.jsonl")
	writeFile(t, concepts, "")

	d, err := New(func(context.Context) error { return nil }, []string{concepts}, Config{Debounce: time.Nanosecond})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if d.config.Debounce != MinDebounce {
		t.Errorf("Debounce = %v, want %v", d.config.Debounce, MinDebounce)
	}
	startDaemon(t, d)

	writeFile(t, concepts, "{}\n")
	if !waitFor(t, 5*time.Second, func() bool { return d.Runs() >= 2 }) {
		t.Fatalf("Runs() = %d after change, want at least 2", d.Runs())
	}
}

func TestDaemon_RunsOnChange(t *testing.T) {
	dir := t.TempDir()
	concepts := filepath.Join(dir, "concepts.jsonl")
	mappings := filepath.Join(dir, "mappings.jsonl")
	writeFile(t, concepts, "")
	writeFile(t, mappings, "")

	d, err := New(func(context.Context) error { return nil }, []string{concepts, mappings}, Config{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	startDaemon(t, d)

	if d.Runs() != 1 {
		t.Fatalf("Runs() = %d after startup, want 1", d.Runs())
	}

	writeFile(t, mappings, "{}\n")
	if !waitFor(t, 5*time.Second, func() bool { return d.Runs() == 2 }) {
		t.Fatalf("Runs() = %d after change, want 2", d.Runs())
	}
}

func TestDaemon_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	concepts := filepath.Join(dir, "concepts.jsonl")
	writeFile(t, concepts, "")

	d, err := New(func(context.Context) error { return nil }, []string{concepts}, Config{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	startDaemon(t, d)

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")
	time.Sleep(200 * time.Millisecond)

	if d.Runs() != 1 {
		t.Errorf("Runs() = %d, want 1 (unrelated file must not trigger a run)", d.Runs())
	}
}

func TestDaemon_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	concepts := filepath.Join(dir, "concepts.jsonl")
	writeFile(t, concepts, "")

	d, err := New(func(context.Context) error { return nil }, []string{concepts}, Config{Debounce: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	startDaemon(t, d)

	for i := 0; i < 5; i++ {
		writeFile(t, concepts, "line\n")
	}

	if !waitFor(t, 5*time.Second, func() bool { return d.Runs() >= 2 }) {
		t.Fatalf("Runs() = %d after burst, want 2", d.Runs())
	}
	time.Sleep(500 * time.Millisecond)
	if d.Runs() != 2 {
		t.Errorf("Runs() = %d, want 2 (burst should produce a single run)", d.Runs())
	}
}

func TestDaemon_FailedRunKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	concepts := filepath.Join(dir, "concepts.jsonl")
	writeFile(t, concepts, "")

	calls := 0
	run := func(context.Context) error {
		calls++
		if calls == 2 {
			return errors.New("bad input")
		}
		return nil
	}

	d, err := New(run, []string{concepts}, Config{Debounce: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	startDaemon(t, d)

	writeFile(t, concepts, "broken\n")
	if !waitFor(t, 5*time.Second, func() bool { return d.Failures() == 1 }) {
		t.Fatalf("Failures() = %d, want 1", d.Failures())
	}

	writeFile(t, concepts, "fixed\n")
	if !waitFor(t, 5*time.Second, func() bool { return d.Runs() == 3 }) {
		t.Fatalf("Runs() = %d, want 3", d.Runs())
	}
}

func TestDaemon_InitialRunFailure(t *testing.T) {
	dir := t.TempDir()
	concepts := filepath.Join(dir, "concepts.jsonl")
	writeFile(t, concepts, "")

	d, err := New(func(context.Context) error { return errors.New("no store") }, []string{concepts}, Config{})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Error("expected initial run failure to be returned")
	}
}
