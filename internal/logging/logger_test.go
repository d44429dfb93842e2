package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rasterandstate/majestic-canon/internal/config"
	"github.com/rasterandstate/majestic-canon/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (func(string, ...any), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{
		Format:  format,
		Level:   level,
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger.Info, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("startup", logging.String(logging.FieldHashVersion, "v4"))

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, "startup") || !strings.Contains(content, "hash_version=v4") {
		t.Fatalf("unexpected log content %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	info, path := newFileLogger(t, "console", "info")
	info("message without caller")

	if content := readLog(t, path); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	info, path := newFileLogger(t, "console", "debug")
	info("message with caller")

	if content := readLog(t, path); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponentAndRecord(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger := logging.NewComponentLogger(base, "validate")
	ctx := logging.WithRecord(context.Background(), "editions/seven-samurai.json")
	logging.WithContext(ctx, logger).Info("checked", logging.Int("violations", 0))

	content := readLog(t, logPath)
	if !strings.Contains(content, "validate: [editions/seven-samurai.json] checked violations=0") {
		t.Fatalf("unexpected console line %q", content)
	}
}

func TestJSONLoggerCarriesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "run-1")
	ctx = logging.WithRecord(ctx, "a.json")
	logging.WarnWithContext(logging.WithContext(ctx, logger), "advisory", "duplicate_upc")

	var entry map[string]any
	if err := json.Unmarshal([]byte(readLog(t, logPath)), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	want := map[string]string{
		"level":                "warn",
		"msg":                  "advisory",
		logging.FieldRunID:     "run-1",
		logging.FieldRecord:    "a.json",
		logging.FieldEventType: "duplicate_upc",
		logging.FieldErrorHint: "check logs for details",
		logging.FieldImpact:    "operation completed with warnings",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Errorf("field %s = %v, want %q", key, entry[key], value)
		}
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, err := logging.New(logging.Options{Level: "verbose"}); err == nil {
		t.Fatal("expected unsupported level error")
	}
}

func TestConsoleLoggerHidesRunIDAndFlattensGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	base, err := logging.New(logging.Options{Format: "console", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger := base.With(logging.String(logging.FieldRunID, "run-1")).WithGroup("gs1")
	logger.Info("resolved", logging.String("prefix", "0071551"), logging.String("company", "The Criterion Collection"))

	content := readLog(t, logPath)
	if strings.Contains(content, "run-1") {
		t.Fatalf("expected run id to stay out of console lines, got %q", content)
	}
	if !strings.Contains(content, `resolved gs1.prefix=0071551 gs1.company="The Criterion Collection"`) {
		t.Fatalf("unexpected console line %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.ErrorWithContext(logger, "ignored", "test", logging.Error(errors.New("boom")))
}
