package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/mastplan/internal/version"
)

// Config holds the mastplan configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Mast    MastConfig    `yaml:"mast"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MastConfig holds archive connection settings.
type MastConfig struct {
	BaseURL           string  `yaml:"base_url"`
	InvokePath        string  `yaml:"invoke_path"`
	TimeoutSec        int     `yaml:"timeout_sec"`         // per call, covers EXECUTING polls
	PollIntervalMs    int     `yaml:"poll_interval_ms"`    // EXECUTING re-poll delay
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	PageSize          int     `yaml:"page_size"`
	UserAgent         string  `yaml:"user_agent"`
}

// SearchConfig holds the count-first search settings.
type SearchConfig struct {
	Service             string  `yaml:"service"`
	ResolverService     string  `yaml:"resolver_service"`
	MaxFullFetch        int64   `yaml:"max_full_fetch"`
	DefaultRadiusArcsec float64 `yaml:"default_radius_arcsec"`
	MaxTargets          int     `yaml:"max_targets"`
}

// Timeout returns the per-call archive timeout.
func (m MastConfig) Timeout() time.Duration { return time.Duration(m.TimeoutSec) * time.Second }

// PollInterval returns the delay between EXECUTING polls.
func (m MastConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalMs) * time.Millisecond
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// a full fetch may poll the archive for most of a minute
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Mast.BaseURL == "" {
		c.Mast.BaseURL = "https://mast.stsci.edu"
	}
	if c.Mast.InvokePath == "" {
		c.Mast.InvokePath = "/api/v0/invoke"
	}
	if c.Mast.TimeoutSec <= 0 {
		c.Mast.TimeoutSec = 60
	}
	if c.Mast.PollIntervalMs <= 0 {
		c.Mast.PollIntervalMs = 500
	}
	if c.Mast.PageSize <= 0 {
		c.Mast.PageSize = 50000
	}
	if c.Mast.UserAgent == "" {
		c.Mast.UserAgent = version.UserAgent()
	}
	if c.Search.Service == "" {
		c.Search.Service = "Mast.Caom.Filtered.Position"
	}
	if c.Search.ResolverService == "" {
		c.Search.ResolverService = "Mast.Name.Lookup"
	}
	if c.Search.MaxFullFetch <= 0 {
		c.Search.MaxFullFetch = 1000
	}
	if c.Search.DefaultRadiusArcsec <= 0 {
		c.Search.DefaultRadiusArcsec = 10
	}
	if c.Search.MaxTargets <= 0 {
		c.Search.MaxTargets = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	u, err := url.Parse(c.Mast.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("mast.base_url must be an absolute http(s) URL, got %q", c.Mast.BaseURL)
	}
	if c.Mast.RequestsPerSecond < 0 {
		return fmt.Errorf("mast.requests_per_second must not be negative, got %v", c.Mast.RequestsPerSecond)
	}
	if c.Search.DefaultRadiusArcsec > 180*3600 {
		return fmt.Errorf("search.default_radius_arcsec must not exceed 648000, got %v", c.Search.DefaultRadiusArcsec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
