package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSanitizeValueRedactsSecrets(t *testing.T) {
	if got := sanitizeValue("openai_api_key", "sk-123"); got != "[REDACTED]" {
		t.Fatalf("api key: want=[REDACTED] got=%v", got)
	}
	if got := sanitizeValue("model", "gpt-4o-mini"); got != "gpt-4o-mini" {
		t.Fatalf("model: want passthrough got=%v", got)
	}
}

func TestSanitizeValueHashesIdentifiers(t *testing.T) {
	got, ok := sanitizeValue("client_ip", "10.0.0.1").(string)
	if !ok || !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("client_ip: want hash got=%v", got)
	}
	if again := sanitizeValue("client_ip", "10.0.0.1"); again != got {
		t.Fatalf("hash not stable: %v vs %v", got, again)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("noop", "k", "v")
	l.With("service", "x").Warn("still noop")
	l.Sync()
}

func TestNewHonorsLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	log, err := New("development")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	if log.SugaredLogger.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info level: want disabled under LOG_LEVEL=warn")
	}
	if !log.SugaredLogger.Desugar().Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn level: want enabled")
	}
}

func TestNewDefaultsToDebug(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	log, err := New("production")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !log.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level: want enabled by default")
	}
}
