package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server     Server     `yaml:"server"`
	Database   Database   `yaml:"database"`
	Enrichment Enrichment `yaml:"enrichment"`
	Media      Media      `yaml:"media"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	Logging    Logging    `yaml:"logging"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Enrichment struct {
	Provider       string  `yaml:"provider"` // "mock" or "gemini"
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	MaxAttempts    int     `yaml:"max_attempts"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
}

type Media struct {
	APIKeyEnv      string `yaml:"api_key_env"`
	ImageEndpoint  string `yaml:"image_endpoint"`
	VideoEndpoint  string `yaml:"video_endpoint"`
	ResultCount    int    `yaml:"result_count"`
	MaxConcurrent  int    `yaml:"max_concurrent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Pipeline struct {
	SlugAttempts int `yaml:"slug_attempts"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for newswire.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newswire")
}

// DataDir returns the XDG data directory for newswire.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newswire")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newswire/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newswire init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{Port: 8000},
		Enrichment: Enrichment{
			Provider:       "mock",
			Model:          "gemini-2.5-flash",
			APIKeyEnv:      "GEMINI_API_KEY",
			MaxAttempts:    3,
			TimeoutSeconds: 30,
			RateLimitRPS:   2,
		},
		Media: Media{
			APIKeyEnv:      "BRAVE_API_KEY",
			ResultCount:    3,
			MaxConcurrent:  8,
			TimeoutSeconds: 20,
		},
		Pipeline: Pipeline{SlugAttempts: 3},
		Logging:  Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDBPath returns the effective database path from config or XDG default.
func (c *Config) GetDBPath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(DataDir(), "newswire.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
