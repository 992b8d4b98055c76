package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Cases     CasesConfig     `yaml:"cases"`
	Session   SessionConfig   `yaml:"session"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type CasesConfig struct {
	Dir        string `yaml:"dir"`
	MatchTable string `yaml:"match_table"` // optional vocabulary override
}

type SessionConfig struct {
	TTLMinutes        int `yaml:"ttl_minutes"`
	SweepIntervalSecs int `yaml:"sweep_interval_secs"`
}

type OpenAIConfig struct {
	Model string `yaml:"model"` // the API key comes from OPENAI_API_KEY only
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Cases: CasesConfig{
			Dir: "cases",
		},
		Session: SessionConfig{
			TTLMinutes:        30,
			SweepIntervalSecs: 30,
		},
		DB: DBConfig{
			Path: "clinsim.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("CLINSIM_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CLINSIM_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CLINSIM_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CLINSIM_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("CLINSIM_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dir := os.Getenv("CLINSIM_CASES_DIR"); dir != "" {
		cfg.Cases.Dir = dir
	}
	if table := os.Getenv("CLINSIM_MATCH_TABLE"); table != "" {
		cfg.Cases.MatchTable = table
	}
	if ttlStr := os.Getenv("CLINSIM_SESSION_TTL_MINUTES"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CLINSIM_SESSION_TTL_MINUTES: %w", err)
		}
		cfg.Session.TTLMinutes = ttl
	}
	if model := os.Getenv("CLINSIM_OPENAI_MODEL"); model != "" {
		cfg.OpenAI.Model = model
	}
	if dbPath := os.Getenv("CLINSIM_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if token := os.Getenv("CLINSIM_AUTH_TOKEN"); token != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Token = token
	}
	if level := os.Getenv("CLINSIM_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
