package config_test

import (
	"strings"
	"testing"

	"emmark/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Attachments.MaxSizeBytes != 5*1024*1024 {
		t.Fatalf("attachment ceiling: got %d, want 5 MB", cfg.Attachments.MaxSizeBytes)
	}
}

func TestFromYAMLFillsDefaults(t *testing.T) {
	cfg, err := config.FromYAML([]byte("event:\n  name: Boda García\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Event.Name != "Boda García" {
		t.Fatalf("event name: got %q", cfg.Event.Name)
	}
	if cfg.Event.Currency != "$" || cfg.Report.Output == "" || cfg.Attachments.MaxSizeBytes == 0 {
		t.Fatalf("defaults not filled: %+v", cfg)
	}
}

func TestFromYAMLRequiresEventName(t *testing.T) {
	_, err := config.FromYAML([]byte("event: {}\n"))
	if err == nil || !strings.Contains(err.Error(), "event.name") {
		t.Fatalf("expected event.name error, got %v", err)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Event.Name = "Feria Anual"
	out, err := cfg.ToYAML()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := config.FromYAML(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if back.Event.Name != "Feria Anual" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
