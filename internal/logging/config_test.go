package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":       zerolog.TraceLevel,
		"diagnostics": zerolog.TraceLevel,
		" DEBUG ":     zerolog.DebugLevel,
		"warning":     zerolog.WarnLevel,
		"off":         zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q) = %v %v, want %v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("unknown level must not apply")
	}
	if _, ok := parseLevel(""); ok {
		t.Fatalf("empty level must not apply")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogBypass, "nope")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel || cfg.Timestamp || !cfg.NoColor || cfg.Bypass {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestNewBypassWritesJSON(t *testing.T) {
	var out bytes.Buffer
	logger := New(Config{Level: zerolog.InfoLevel, Bypass: true, Output: &out})
	logger.Debug().Msg("hidden")
	logger.Info().Str("store", "/S").Msg("mapped")

	line := strings.TrimSpace(out.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("bypass output is not one JSON line: %q", line)
	}
	if entry["store"] != "/S" || entry["message"] != "mapped" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewConsoleOmitsTimestamp(t *testing.T) {
	var out bytes.Buffer
	logger := New(Config{Level: zerolog.InfoLevel, NoColor: true, Output: &out})
	logger.Info().Msg("hello")
	if !strings.Contains(out.String(), "hello") || strings.Contains(out.String(), "time") {
		t.Fatalf("unexpected console output %q", out.String())
	}
}
