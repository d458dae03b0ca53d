// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type AppConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables the session cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"` // identity service root
	Timeout time.Duration `yaml:"timeout"`
}

type AIConfig struct {
	OpenAIKey  string        `yaml:"openai_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"` // attempts = max_retries + 1; -1 means no retries
}

type ChatConfig struct {
	RetentionDays      int `yaml:"retention_days"`
	MaxMessageLength   int `yaml:"max_message_length"`
	MaxHistoryMessages int `yaml:"max_history_messages"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type AdminConfig struct {
	Secret     string        `yaml:"secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Backend  BackendConfig  `yaml:"backend"`
	AI       AIConfig       `yaml:"ai"`
	Chat     ChatConfig     `yaml:"chat"`
	Admin    AdminConfig    `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Retention returns the sliding retention window for chat sessions.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Chat.RetentionDays) * 24 * time.Hour
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.AI.OpenAIKey == "" {
		return nil, errors.New("ai.openai_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "chat-gateway"
	}
	if c.App.Port <= 0 {
		c.App.Port = 8090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://backend:8080"
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 5 * time.Second
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4.1-mini"
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 30 * time.Second
	}
	if c.AI.MaxRetries < 0 {
		c.AI.MaxRetries = 0
	} else if c.AI.MaxRetries == 0 {
		c.AI.MaxRetries = 2
	}
	if c.Chat.RetentionDays <= 0 {
		c.Chat.RetentionDays = 30
	}
	if c.Chat.MaxMessageLength <= 0 {
		c.Chat.MaxMessageLength = 4000
	}
	if c.Chat.MaxHistoryMessages <= 0 {
		c.Chat.MaxHistoryMessages = 20
	}
	if c.Chat.RateLimitPerMinute <= 0 {
		c.Chat.RateLimitPerMinute = 20
	}
	if c.Admin.SessionTTL <= 0 {
		c.Admin.SessionTTL = 30 * time.Minute
	}
}
