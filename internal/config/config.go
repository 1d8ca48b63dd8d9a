package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models aptmatch.yml.
type Config struct {
	Matching struct {
		MinFit           float64 `yaml:"min_fit"`
		ListDisplayLimit int     `yaml:"list_display_limit"`
	} `yaml:"matching"`
	Remote struct {
		BaseURL string   `yaml:"base_url"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"remote"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Log struct {
		JSON  bool `yaml:"json"`
		Debug bool `yaml:"debug"`
	} `yaml:"log"`
}

// Duration parses Go duration strings ("5s", "1m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Matching.MinFit < 0 || c.Matching.MinFit > 1 {
		return fmt.Errorf("config.matching.min_fit must be between 0 and 1")
	}
	if c.Matching.ListDisplayLimit < 0 {
		return fmt.Errorf("config.matching.list_display_limit must not be negative")
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("config.remote.timeout must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "aptmatch.yml")
}

// Load reads and validates config from workspace. A missing file yields
// the defaults.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `matching:
  # Candidates below this fit score are filtered from rankings.
  min_fit: 0.6
  list_display_limit: 5

remote:
  base_url: ""
  timeout: 5s

server:
  addr: ":8080"
  base_path: /v0

log:
  json: false
  debug: false
`
