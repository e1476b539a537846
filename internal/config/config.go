// Package config provides YAML-based configuration loading for Educode.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Educode configuration, loaded from educode.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Backend  BackendConfig  `yaml:"backend"`
	LLM      LLMConfig      `yaml:"llm"`
	Chat     ChatConfig     `yaml:"chat"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds settings for the web host and mock backend.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	RestartDelay time.Duration `yaml:"restart_delay"`
}

// DatabaseConfig selects the backend store. Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// BackendConfig points the clients at the login/container endpoints.
type BackendConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LLMConfig configures the chat completion stream.
type LLMConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	ChunkDelay time.Duration `yaml:"chunk_delay"`
}

// ChatConfig tunes the copilot session behaviour.
type ChatConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
	LabelMax    int           `yaml:"label_max"`
	RegroupCron string        `yaml:"regroup_cron"`
}

// LogConfig selects log level and output format ("console" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default values applied by applyDefaults.
const (
	DefaultPort         = 8080
	DefaultRestartDelay = 2 * time.Second
	DefaultSQLitePath   = "file::memory:?cache=shared"
	DefaultMySQLPort    = 3306
	DefaultTimeout      = 10 * time.Second
	DefaultCacheTTL     = 30 * time.Second
	DefaultModel        = "DeepSeek-R1-Distill-Qwen-7B"
	DefaultChunkDelay   = 50 * time.Millisecond
	DefaultSettleDelay  = 100 * time.Millisecond
	DefaultLabelMax     = 20
	DefaultRegroupCron  = "0 0 * * *"
)

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := presetDefaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// presetDefaults returns a Config holding the defaults of fields where
// zero is a meaningful value. Keys present in the file overwrite them.
func presetDefaults() Config {
	var c Config
	c.Backend.CacheTTL = DefaultCacheTTL
	c.LLM.ChunkDelay = DefaultChunkDelay
	c.Chat.SettleDelay = DefaultSettleDelay
	return c
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RestartDelay == 0 {
		c.Server.RestartDelay = DefaultRestartDelay
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = DefaultSQLitePath
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = DefaultMySQLPort
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "educode"
		}
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = DefaultTimeout
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = c.Backend.BaseURL + "/api/chat"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.Chat.LabelMax == 0 {
		c.Chat.LabelMax = DefaultLabelMax
	}
	if c.Chat.RegroupCron == "" {
		c.Chat.RegroupCron = DefaultRegroupCron
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Chat.SettleDelay < 0 {
		errs = append(errs, "chat.settle_delay must not be negative")
	}
	if c.Chat.LabelMax < 0 {
		errs = append(errs, "chat.label_max must not be negative")
	}
	if _, err := cron.ParseStandard(c.Chat.RegroupCron); err != nil {
		errs = append(errs, fmt.Sprintf("chat.regroup_cron %q: %v", c.Chat.RegroupCron, err))
	}
	if c.Backend.CacheTTL < 0 {
		errs = append(errs, "backend.cache_ttl must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return errors.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
