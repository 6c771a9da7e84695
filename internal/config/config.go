// Package config loads the user's g configuration file.
//
// The file is optional: a missing file yields the defaults, so g works without
// any setup. Values that are present are validated on load.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SirVer/giti/internal/fix"
	"github.com/SirVer/giti/internal/selfupdate"
)

// DefaultBase is the reference changes are computed against
const DefaultBase = "origin/master"

// Config represents the user configuration
type Config struct {
	Base string `yaml:"base"`
	// Formatters are evaluated before the built-in rules
	Formatters       []fix.Rule   `yaml:"formatters"`
	FormatterTimeout Duration     `yaml:"formatter_timeout"`
	Update           UpdateConfig `yaml:"update"`
	LogFile          string       `yaml:"log_file"`
}

// UpdateConfig configures self-update
type UpdateConfig struct {
	// Repo is the GitHub repository releases are fetched from, as owner/name
	Repo string `yaml:"repo"`
	// APIURL points at a GitHub Enterprise API instead of api.github.com
	APIURL  string   `yaml:"api_url"`
	Timeout Duration `yaml:"timeout"`
	Retries *int     `yaml:"retries"`
}

// Duration is a time.Duration written as a Go duration string ("90s", "2m")
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: duration %q must not be negative", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file exists
func Default() *Config {
	retries := selfupdate.DefaultRetries
	return &Config{
		Base:             DefaultBase,
		FormatterTimeout: Duration(fix.DefaultTimeout),
		Update: UpdateConfig{
			Repo:    selfupdate.DefaultOwner + "/" + selfupdate.DefaultRepo,
			Timeout: Duration(selfupdate.DefaultHTTPTimeout),
			Retries: &retries,
		},
	}
}

// Load reads the configuration at path. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault reads the configuration from Path()
func LoadDefault() (*Config, error) {
	return Load(Path())
}

// Parse decodes YAML configuration on top of the defaults and validates it
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that YAML decoding alone cannot
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Base) == "" {
		return errors.New("base must not be empty")
	}
	for i, rule := range c.Formatters {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("formatters[%d]: %w", i, err)
		}
	}
	if _, _, err := c.UpdateRepo(); err != nil {
		return err
	}
	if c.Update.Retries != nil && *c.Update.Retries < 0 {
		return fmt.Errorf("update.retries must not be negative, got %d", *c.Update.Retries)
	}
	return nil
}

// Rules returns the configured formatter rules followed by the built-in ones
func (c *Config) Rules() []fix.Rule {
	rules := make([]fix.Rule, 0, len(c.Formatters)+len(fix.DefaultRules))
	rules = append(rules, c.Formatters...)
	return append(rules, fix.DefaultRules...)
}

// UpdateRepo splits update.repo into owner and name
func (c *Config) UpdateRepo() (string, string, error) {
	owner, name, ok := strings.Cut(c.Update.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("update.repo must be owner/name, got %q", c.Update.Repo)
	}
	return owner, name, nil
}

// UpdateRetries returns the retry budget for release traffic
func (c *Config) UpdateRetries() int {
	if c.Update.Retries == nil {
		return selfupdate.DefaultRetries
	}
	return *c.Update.Retries
}

// LogFilePath returns the log file to write, preferring $G_LOG_FILE
func (c *Config) LogFilePath() string {
	if p := os.Getenv("G_LOG_FILE"); p != "" {
		return p
	}
	return c.LogFile
}
