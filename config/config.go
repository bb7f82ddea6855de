// Package config loads the optional YAML settings file. Flags override
// anything set here; the file mainly carries the agent name map, which
// grows as new spellings show up in the source data.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ryoyaiwata8-sudo/mail-review/gate"
)

// Config is the on-disk settings shape.
type Config struct {
	// DataDir is the directory scanned for audio files and email logs.
	DataDir string `yaml:"data_dir"`
	// AgentMap extends the built-in romaji/shorthand to display name
	// mapping. Keys are matched case-insensitively.
	AgentMap map[string]string `yaml:"agent_map"`
	// APIKeyEnv names the environment variable holding the Gemini API
	// key. Defaults to GEMINI_API_KEY.
	APIKeyEnv string `yaml:"api_key_env"`
	// Gate adjusts individual content-gate thresholds. Unset (zero)
	// fields keep the built-in values.
	Gate GateOverrides `yaml:"gate"`
}

// GateOverrides mirrors gate.Thresholds field by field; each entry
// replaces the built-in value when positive.
type GateOverrides struct {
	CallStrictMin    int `yaml:"call_strict_min"`
	CallLooseMin     int `yaml:"call_loose_min"`
	EmailStrictMin   int `yaml:"email_strict_min"`
	EmailLooseMin    int `yaml:"email_loose_min"`
	CallRescueFloor  int `yaml:"call_rescue_floor"`
	EmailRescueFloor int `yaml:"email_rescue_floor"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:   "data",
		AgentMap:  map[string]string{},
		APIKeyEnv: "GEMINI_API_KEY",
	}
}

// Load reads and validates a YAML config file, filling unset fields
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.AgentMap == nil {
		cfg.AgentMap = map[string]string{}
	}
	return cfg, nil
}

// APIKey resolves the configured API key from the environment. Empty
// when unset; the caller falls back to the mock evaluation client.
func (c *Config) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// Thresholds merges the file's gate overrides onto the gate defaults.
func (c *Config) Thresholds() gate.Thresholds {
	th := gate.DefaultThresholds()
	if c.Gate.CallStrictMin > 0 {
		th.CallStrictMin = c.Gate.CallStrictMin
	}
	if c.Gate.CallLooseMin > 0 {
		th.CallLooseMin = c.Gate.CallLooseMin
	}
	if c.Gate.EmailStrictMin > 0 {
		th.EmailStrictMin = c.Gate.EmailStrictMin
	}
	if c.Gate.EmailLooseMin > 0 {
		th.EmailLooseMin = c.Gate.EmailLooseMin
	}
	if c.Gate.CallRescueFloor > 0 {
		th.CallRescueFloor = c.Gate.CallRescueFloor
	}
	if c.Gate.EmailRescueFloor > 0 {
		th.EmailRescueFloor = c.Gate.EmailRescueFloor
	}
	return th
}
