package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration, loaded from a YAML file with
// environment overrides for deployment knobs.
type Config struct {
	Listen          string `yaml:"listen"`
	LogLevel        string `yaml:"log_level"`
	DefaultYear     int    `yaml:"default_year"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
	ObservabilityDB string `yaml:"observability_db"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	MCPTransport    string `yaml:"mcp_transport"` // "" or "stdio"

	LLM LLMConfig `yaml:"llm"`
}

// LLMConfig names the completion backend. The API key itself never lives in
// the config file; APIKeyEnv names the environment variable that carries it.
type LLMConfig struct {
	APIKeyEnv      string   `yaml:"api_key_env"`
	BaseURL        string   `yaml:"base_url"`
	Model          string   `yaml:"model"`
	MaxRetries     int      `yaml:"max_retries"`
	RetryBase      duration `yaml:"retry_base"`
	AttemptTimeout duration `yaml:"attempt_timeout"`
}

// duration decodes Go duration strings ("250ms", "30s") from YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = duration(v)
	return nil
}

func defaultConfig() Config {
	return Config{
		Listen:          ":8080",
		LogLevel:        "info",
		DefaultYear:     time.Now().Year(),
		MaxUploadBytes:  25 * 1024 * 1024,
		ObservabilityDB: "db/observability.db",
		RateLimitPerMin: 30,
		LLM: LLMConfig{
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}

// loadConfig reads the YAML file at path (optional) and applies environment
// overrides.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.MCPTransport = v
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}

	return cfg, nil
}
