package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "HANSEI_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "model.base_url", typ: kString, env: "HANSEI_MODEL_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Model.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Model.BaseURL },
	},
	{
		key: "model.name", typ: kString, env: "HANSEI_MODEL_NAME",
		apply:   func(cfg *Config, v any) { cfg.Model.Name = v.(string) },
		extract: func(cfg Config) any { return cfg.Model.Name },
	},
	{
		key: "model.max_tokens", typ: kInt, env: "HANSEI_MODEL_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Model.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Model.MaxTokens },
	},
	{
		key: "model.temperature", typ: kFloat, env: "HANSEI_MODEL_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Model.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Model.Temperature },
	},
	{
		key: "model.api_key", typ: kString, env: "HANSEI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Model.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Model.APIKey },
	},
	{
		key: "history.depth", typ: kInt, env: "HANSEI_HISTORY_DEPTH",
		apply:   func(cfg *Config, v any) { cfg.History.Depth = v.(int) },
		extract: func(cfg Config) any { return cfg.History.Depth },
	},
	{
		key: "storage.data_dir", typ: kString, env: "HANSEI_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "HANSEI_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
