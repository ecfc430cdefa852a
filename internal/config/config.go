package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all process-wide settings. It is constructed once by Load
// at startup and treated as immutable afterwards; every pipeline
// invocation receives it by value.
type Config struct {
	Server  ServerConfig
	Model   ModelConfig
	History HistoryConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

// ModelConfig describes the completion service and generation parameters.
type ModelConfig struct {
	BaseURL     string
	Name        string
	MaxTokens   int
	Temperature float64
	// APIKey is the bearer credential for the completion service.
	// Secret: settable only via environment, never stored in the
	// config file.
	APIKey string
}

type HistoryConfig struct {
	// Depth is how many prior reports are considered (default 1).
	Depth int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Model: ModelConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Name:        "openai/gpt-4o",
			MaxTokens:   1000,
			Temperature: 0.7,
		},
		History: HistoryConfig{
			Depth: 1,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "hansei-data"
		}
	}
	return filepath.Join(dir, "hansei")
}

// Load reads configuration from the JSON config file and environment
// variables. Resolution order: compiled defaults, then the config file at
// $XDG_CONFIG_HOME/hansei/config.json, then HANSEI_* environment
// variables. The completion service API key is required.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Model.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: completion service API key. Set it via environment variable HANSEI_API_KEY")
	}

	return cfg, nil
}
