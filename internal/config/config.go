package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the portal configuration.
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	API         APIConfig        `toml:"api"`
	MarketData  MarketDataConfig `toml:"market_data"`
	Cache       CacheConfig      `toml:"cache"`
	Auth        AuthConfig       `toml:"auth"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// APIConfig points at the Snapfolio backend REST API.
type APIConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MarketDataConfig points at the external quote provider behind /api/stock-data.
type MarketDataConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// CacheConfig controls the in-memory response cache.
type CacheConfig struct {
	NewsTTLMinutes int `toml:"news_ttl_minutes"`
	MaxEntries     int `toml:"max_entries"`
}

// AuthConfig contains session settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// IsDevMode reports whether the portal runs with dev conveniences enabled.
func (c *Config) IsDevMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "dev")
}

// BaseURL returns the portal's own base URL.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// Validate returns human-readable issues for mandatory settings.
func (c *Config) Validate() []string {
	var issues []string
	if strings.TrimSpace(c.API.URL) == "" {
		issues = append(issues, "api.url is required (Snapfolio backend base URL)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if !c.IsDevMode() && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		issues = append(issues, "auth.jwt_secret is required outside dev mode")
	}
	return issues
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies SNAPFOLIO_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SNAPFOLIO_ENVIRONMENT"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("SNAPFOLIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SNAPFOLIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("SNAPFOLIO_API_URL"); url != "" {
		config.API.URL = url
	}
	if url := os.Getenv("SNAPFOLIO_MARKET_DATA_URL"); url != "" {
		config.MarketData.URL = url
	}
	if key := os.Getenv("SNAPFOLIO_MARKET_DATA_API_KEY"); key != "" {
		config.MarketData.APIKey = key
	}
	if secret := os.Getenv("SNAPFOLIO_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if level := os.Getenv("SNAPFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
