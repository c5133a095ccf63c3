package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config models emmark.yml.
type Config struct {
	Event struct {
		Name     string `yaml:"name" json:"name"`
		Currency string `yaml:"currency" json:"currency"`
	} `yaml:"event" json:"event"`
	Attachments struct {
		MaxSizeBytes int64 `yaml:"max_size_bytes" json:"max_size_bytes"`
	} `yaml:"attachments" json:"attachments"`
	Report struct {
		Output string `yaml:"output" json:"output"`
	} `yaml:"report" json:"report"`
}

// DefaultMaxAttachmentSize mirrors the original's 5 MB upload ceiling.
const DefaultMaxAttachmentSize = 5 * 1024 * 1024

// Default returns the seed config for a fresh workspace.
func Default() *Config {
	cfg := &Config{}
	cfg.Event.Name = "EVENTO EMMARK"
	cfg.Event.Currency = "$"
	cfg.Attachments.MaxSizeBytes = DefaultMaxAttachmentSize
	cfg.Report.Output = "evento-emmark-reporte.txt"
	return cfg
}

// FromYAML parses and validates a config document.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Event.Currency == "" {
		cfg.Event.Currency = "$"
	}
	if cfg.Attachments.MaxSizeBytes == 0 {
		cfg.Attachments.MaxSizeBytes = DefaultMaxAttachmentSize
	}
	if cfg.Report.Output == "" {
		cfg.Report.Output = "evento-emmark-reporte.txt"
	}
	return &cfg, cfg.Validate()
}

// ToYAML renders the config for export.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Event.Name == "" {
		return fmt.Errorf("config.event.name is required")
	}
	if c.Attachments.MaxSizeBytes < 0 {
		return fmt.Errorf("config.attachments.max_size_bytes must be non-negative")
	}
	if c.Report.Output == "" {
		return fmt.Errorf("config.report.output is required")
	}
	return nil
}
