package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger_WritesFileAndConsole(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	log, err := NewLogger(Options{Dir: dir, Identity: "gw-monitor", Console: zapcore.AddSync(&console)})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Info("sweep_done")
	log.Debug("hidden_debug")
	log.Warn("state_corrupt")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "gw-monitor.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"sweep_done"`) || !strings.Contains(string(data), `"logger":"gw-monitor"`) {
		t.Fatalf("unexpected log file contents:\n%s", data)
	}
	if strings.Contains(string(data), "hidden_debug") {
		t.Fatal("debug entries must be dropped unless Debug is set")
	}
	if strings.Contains(console.String(), "sweep_done") || !strings.Contains(console.String(), "state_corrupt") {
		t.Fatalf("console should only carry warnings:\n%s", console.String())
	}
}

func TestNewLogger_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(Options{Dir: dir, Debug: true, Console: zapcore.AddSync(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Debug("probe_detail")
	_ = log.Sync()

	data, _ := os.ReadFile(filepath.Join(dir, "praesto.log"))
	if !strings.Contains(string(data), "probe_detail") {
		t.Fatalf("debug entry missing:\n%s", data)
	}
}
