package log

import (
	"bytes"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelText(t *testing.T) {
	var l Level
	if err := l.UnmarshalText([]byte("warn")); err != nil || l != LevelWarn {
		t.Fatalf("UnmarshalText: %v, %v", l, err)
	}
	if b, _ := l.MarshalText(); string(b) != "warn" {
		t.Errorf("MarshalText = %s", b)
	}
	if err := l.UnmarshalText([]byte("loud")); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "": FormatJSON, "TEXT": FormatText, "console": FormatText} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestConfigFromStrings(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := ConfigFromStrings("debug", "text", &buf)
	if err != nil {
		t.Fatalf("ConfigFromStrings: %v", err)
	}
	if cfg.Level != LevelDebug || cfg.Format != FormatText {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Output.Writer() != &buf {
		t.Error("output writer not applied")
	}

	if _, err := ConfigFromStrings("nope", "json", nil); err == nil {
		t.Error("expected level error")
	}
	if _, err := ConfigFromStrings("info", "nope", nil); err == nil {
		t.Error("expected format error")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo || cfg.Format != FormatJSON || cfg.ServiceName != "waveplan" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if (Output{}).Writer() == nil {
		t.Error("zero Output should fall back to stderr")
	}
}
