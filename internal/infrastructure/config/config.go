package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Ports     PortsConfig
	State     StateConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string `envconfig:"PORT" default:"8888"`
	Host    string `envconfig:"HOST" default:"127.0.0.1"`
	BaseURL string `envconfig:"BASE_URL" default:"/"`
	// CORSOrigins lists origins allowed to call the API; "*" allows any
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// BrowserConfig holds panel and proxy configuration.
type BrowserConfig struct {
	StaticDir    string        `envconfig:"JUPYTERLAB_LOCAL_BROWSER_STATIC_DIR"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"10s"`
	FullToolbar  bool          `envconfig:"FULL_TOOLBAR" default:"true"`
	ProxyHost    string        `envconfig:"PROXY_HOST" default:"localhost"`
	// OwnPort is hidden from the port list; defaults to Server.Port
	OwnPort string `envconfig:"OWN_PORT"`
}

// PortsConfig holds port discovery configuration.
type PortsConfig struct {
	Persistent []int          `envconfig:"PORTS_PERSISTENT"`
	Hidden     []int          `envconfig:"PORTS_HIDDEN"`
	Labels     map[int]string `envconfig:"PORTS_LABELS"`
	File       string         `envconfig:"PORTS_FILE"`
}

// StateConfig holds panel state persistence configuration.
type StateConfig struct {
	Backend string `envconfig:"STATE_BACKEND" default:"file"`
	Path    string `envconfig:"STATE_PATH"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables and the ports file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Ports.File != "" {
		file, err := LoadPortsFile(cfg.Ports.File)
		if err != nil {
			return nil, err
		}
		merged, err := cfg.Ports.Merge(file)
		if err != nil {
			return nil, err
		}
		cfg.Ports = merged
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8888",
			Host:        "127.0.0.1",
			BaseURL:     "/",
			CORSOrigins: []string{"*"},
		},
		Browser: BrowserConfig{
			PollInterval: 10 * time.Second,
			FullToolbar:  true,
			ProxyHost:    "localhost",
		},
		State: StateConfig{
			Backend: "file",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// OwnPort returns the port to hide from the panel's port list.
func (c *Config) OwnPort() string {
	if c.Browser.OwnPort != "" {
		return c.Browser.OwnPort
	}
	return c.Server.Port
}

// StatePath returns the configured state location, or a per-user default
// for the file and sqlite backends.
func (c *Config) StatePath() string {
	if c.State.Path != "" {
		return c.State.Path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	base := filepath.Join(dir, "localbrowser")
	if c.State.Backend == "sqlite" {
		return filepath.Join(base, "state.db")
	}
	return filepath.Join(base, "state")
}
