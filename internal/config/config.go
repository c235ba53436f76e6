// Package config loads the optional per-project botstrap configuration
// file (botstrap.json).
//
// The file tunes how the bootstrap provisions the project — which package
// manager binary to invoke, where the virtual environment lives, which
// package index to resolve against, and which secrets keys the bot
// requires at runtime. Every field has a default, so projects without a
// botstrap.json get the stock behavior.
//
// JSONC (JSON with Comments) is supported via github.com/tidwall/jsonc,
// so the file can carry commentary the same way devcontainer.json files
// commonly do.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// FileName is the standard configuration file name, looked up next to
// the dependency manifest.
const FileName = "botstrap.json"

// Defaults for every tunable. DefaultRequiredEnvKeys lists the secrets
// the bot reads at runtime; botstrap only verifies their presence.
const (
	DefaultTool      = "uv"
	DefaultVenvDir   = ".venv"
	DefaultIndexURL  = "https://pypi.org"
	DefaultLogsDir   = "logs"
	DefaultEnvFile   = ".env"
	DefaultEnvSample = ".env.example"
)

// DefaultRequiredEnvKeys are the environment variables the trading bot
// expects in its secrets file.
var DefaultRequiredEnvKeys = []string{"BINANCE_API_KEY", "BINANCE_API_SECRET"}

// Config holds the resolved project configuration. Zero-valued fields are
// filled with defaults by Load; command-line flags override these values
// at the CLI layer.
type Config struct {
	// Tool is the package manager binary name or path.
	Tool string `json:"tool,omitempty"`

	// VenvDir is the virtual environment directory, relative to the
	// project root unless absolute.
	VenvDir string `json:"venvDir,omitempty"`

	// IndexURL is the package index base URL used by "botstrap resolve".
	IndexURL string `json:"indexUrl,omitempty"`

	// LogsDir is the directory the bootstrap ensures for bot log output.
	LogsDir string `json:"logsDir,omitempty"`

	// EnvFile is the secrets file name.
	EnvFile string `json:"envFile,omitempty"`

	// EnvSample is the template the secrets file is seeded from.
	EnvSample string `json:"envSample,omitempty"`

	// RequiredEnvKeys lists the secrets keys "env check" and "doctor"
	// verify.
	RequiredEnvKeys []string `json:"requiredEnvKeys,omitempty"`

	// DefaultGroups are dependency groups installed by "setup" in
	// addition to the core dependencies, without needing --group flags.
	DefaultGroups []string `json:"defaultGroups,omitempty"`
}

// Default returns a Config populated entirely with defaults.
func Default() *Config {
	return &Config{
		Tool:            DefaultTool,
		VenvDir:         DefaultVenvDir,
		IndexURL:        DefaultIndexURL,
		LogsDir:         DefaultLogsDir,
		EnvFile:         DefaultEnvFile,
		EnvSample:       DefaultEnvSample,
		RequiredEnvKeys: append([]string(nil), DefaultRequiredEnvKeys...),
	}
}

// Load reads botstrap.json from the project root. A missing file is not
// an error — it yields the defaults. A present but malformed file is an
// error: silently falling back to defaults would mask typos in a file the
// user deliberately wrote.
func Load(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Strip JSONC comments and trailing commas before parsing with the
	// standard library decoder.
	cleanJSON := jsonc.ToJSON(data)

	cfg := &Config{}
	if err := json.Unmarshal(cleanJSON, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills every unset field.
func (c *Config) applyDefaults() {
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.VenvDir == "" {
		c.VenvDir = DefaultVenvDir
	}
	if c.IndexURL == "" {
		c.IndexURL = DefaultIndexURL
	}
	if c.LogsDir == "" {
		c.LogsDir = DefaultLogsDir
	}
	if c.EnvFile == "" {
		c.EnvFile = DefaultEnvFile
	}
	if c.EnvSample == "" {
		c.EnvSample = DefaultEnvSample
	}
	if len(c.RequiredEnvKeys) == 0 {
		c.RequiredEnvKeys = append([]string(nil), DefaultRequiredEnvKeys...)
	}
}

// VenvPath resolves the virtual environment directory against the project
// root.
func (c *Config) VenvPath(projectRoot string) string {
	if filepath.IsAbs(c.VenvDir) {
		return c.VenvDir
	}
	return filepath.Join(projectRoot, c.VenvDir)
}

// LogsPath resolves the logs directory against the project root.
func (c *Config) LogsPath(projectRoot string) string {
	if filepath.IsAbs(c.LogsDir) {
		return c.LogsDir
	}
	return filepath.Join(projectRoot, c.LogsDir)
}
