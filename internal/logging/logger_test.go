package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.ErrorLevel},
		{Silent, zapcore.ErrorLevel},
		{Summary, zapcore.InfoLevel},
		{Trace, zapcore.DebugLevel},
		{5, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.verbosity); got != tt.want {
			t.Errorf("LevelFor(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core).With("component", "import")

	log.Info("concept synced", "id", 100)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "import" {
		t.Errorf("component = %v, want import", fields["component"])
	}
	if fields["id"] != int64(100) {
		t.Errorf("id = %v (%T), want 100", fields["id"], fields["id"])
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	log := New(Options{Verbosity: Summary, File: path})

	log.Debug("hidden at summary verbosity")
	log.Info("visible", "concepts", 3)
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"msg":"visible"`) {
		t.Errorf("log file missing info line: %s", content)
	}
	if strings.Contains(content, "hidden") {
		t.Errorf("debug line written at summary verbosity: %s", content)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}
