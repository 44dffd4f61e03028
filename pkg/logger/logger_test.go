package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogger_ValidLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger := GetLogger()
			if logger == nil {
				t.Fatal("GetLogger() returned nil")
			}
		})
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger("invalid")
	if err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestGetLogger_BeforeInit(t *testing.T) {
	// globalLoggerをリセット
	globalLogger = nil

	logger := GetLogger()
	if logger != slog.Default() {
		t.Error("GetLogger() should return slog.Default() when not initialized")
	}
}

func TestNew_FanOut(t *testing.T) {
	var text, js bytes.Buffer
	l := New(slog.LevelInfo, &text, &js)

	l.Debug("hidden")
	l.Info("compiled", "world", "lobby", "lines", 3)

	if strings.Contains(text.String(), "hidden") || strings.Contains(js.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(text.String(), "world=lobby") {
		t.Errorf("text sink missing record: %q", text.String())
	}

	var rec map[string]any
	if err := json.Unmarshal(js.Bytes(), &rec); err != nil {
		t.Fatalf("json sink is not JSON: %v (%q)", err, js.String())
	}
	if rec["msg"] != "compiled" || rec["world"] != "lobby" {
		t.Errorf("unexpected json record %v", rec)
	}
}

func TestInitLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockscript.log")
	closer, err := InitLoggerWithFile("info", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	GetLogger().Info("hello file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello file"`) {
		t.Errorf("log file content = %q", data)
	}

	if _, err := InitLoggerWithFile("loud", path); err == nil {
		t.Error("expected error for invalid level")
	}
}
