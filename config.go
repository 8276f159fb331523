// Package webrote wires the learning pipeline together: browser
// capture, markdown extraction, the pattern store, workflow induction,
// and the HTTP/MCP surfaces over them.
package webrote

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level webrote configuration.
type Config struct {
	PatternsPath string        `yaml:"patterns_path"`
	EventsDB     string        `yaml:"events_db"`
	Browser      BrowserConfig `yaml:"browser"`
	LLM          LLMConfig     `yaml:"llm"`
	Extract      ExtractConfig `yaml:"extract"`
}

// BrowserConfig controls the Chrome connection.
type BrowserConfig struct {
	Remote  string `yaml:"remote"` // WebSocket URL; empty = launch local
	Stealth bool   `yaml:"stealth"`
}

// LLMConfig points at the model used for workflow induction.
type LLMConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ExtractConfig controls page extraction.
type ExtractConfig struct {
	ViewportHeight float64 `yaml:"viewport_height"`
	ExtractLinks   bool    `yaml:"extract_links"`

	// FoldFilter drops content far below the viewport from extraction.
	// Requires layout bounds, one extra CDP round-trip per element.
	FoldFilter bool `yaml:"fold_filter"`
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.EventsDB == "" {
		c.EventsDB = "webrote.db"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 120 * time.Second
	}
	if c.Extract.ViewportHeight <= 0 {
		c.Extract.ViewportHeight = 800
	}
}
