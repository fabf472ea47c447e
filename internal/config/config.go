// Package config loads the bridge configuration from per-environment YAML
// files with ${VAR} expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/esgf-us/esg-bridge/internal/domain"
)

// Config holds the esgbridge configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Globus  GlobusConfig  `yaml:"globus"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// GlobusConfig holds Globus Search connection and credential settings.
type GlobusConfig struct {
	// SearchIndex is the UUID of the Globus Search index queried. The
	// default is the ORNL index.
	SearchIndex string `yaml:"search_index"`
	// SearchURL overrides the search endpoint; derived from SearchIndex
	// when empty.
	SearchURL string `yaml:"search_url"`
	AuthURL   string `yaml:"auth_url"`

	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// TokenRefreshIntervalSec fixes the refresh cadence; 0 derives it
	// from the token's expires_in minus 60s.
	TokenRefreshIntervalSec int `yaml:"token_refresh_interval_sec"`

	RequestTimeoutSec int `yaml:"request_timeout_sec"`
	FacetSize         int `yaml:"facet_size"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTLSec int `yaml:"ttl_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// DefaultSearchIndex is the ORNL Globus Search index.
const DefaultSearchIndex = "a8ef4320-9e5a-4793-837b-c45161ca1845"

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Globus Search can take most of the upstream timeout to answer.
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Globus.SearchIndex == "" {
		c.Globus.SearchIndex = DefaultSearchIndex
	}
	if c.Globus.SearchURL == "" {
		c.Globus.SearchURL = fmt.Sprintf("https://search.api.globus.org/v1/index/%s/search", c.Globus.SearchIndex)
	}
	if c.Globus.AuthURL == "" {
		c.Globus.AuthURL = "https://auth.globus.org/v2/oauth2/token"
	}
	if c.Globus.RequestTimeoutSec <= 0 {
		c.Globus.RequestTimeoutSec = 60
	}
	if c.Globus.FacetSize <= 0 {
		c.Globus.FacetSize = domain.DefaultFacetSize
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if _, err := uuid.Parse(c.Globus.SearchIndex); err != nil {
		return fmt.Errorf("globus.search_index must be a UUID: %w", err)
	}
	if c.Globus.FacetSize > domain.DefaultFacetSize {
		return fmt.Errorf(
			"globus.facet_size must not exceed %d (Globus Search fails above it), got %d",
			domain.DefaultFacetSize, c.Globus.FacetSize,
		)
	}
	if (c.Globus.ClientID == "") != (c.Globus.ClientSecret == "") {
		return fmt.Errorf("globus.client_id and globus.client_secret must be set together")
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
