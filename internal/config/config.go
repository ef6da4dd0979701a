// Package config loads and validates the application configuration from
// YAML, with .env overlay and ${VAR} expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Affiliate   affiliate.Config  `yaml:"affiliate"`
	Store       StoreConfig       `yaml:"store"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Daemon      DaemonConfig      `yaml:"daemon"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins,omitempty"`
	RequestTimeout  time.Duration `yaml:"request_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxHistory  int     `yaml:"max_history"`
	Temperature float64 `yaml:"temperature"`
	SiteURL     string  `yaml:"site_url,omitempty"`
	AppName     string  `yaml:"app_name,omitempty"`
}

// MarketplaceConfig configures the product search collaborator.
type MarketplaceConfig struct {
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	PartnerTag string        `yaml:"partner_tag"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	MaxItems   int           `yaml:"max_items,omitempty"`
}

// StoreConfig selects and configures persistence.
type StoreConfig struct {
	// Backend is "json" or "sqlite".
	Backend string `yaml:"backend"`
	// Dir holds the JSON store files; Path is the sqlite database file.
	Dir  string `yaml:"dir,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DaemonConfig configures background maintenance.
type DaemonConfig struct {
	HealthInterval time.Duration `yaml:"health_interval,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFiles(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse unmarshals configuration bytes, expanding ${VAR} references from
// the environment and applying defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8780
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "google/gemini-2.0-flash-001"
	}
	if c.LLM.MaxHistory == 0 {
		c.LLM.MaxHistory = 20
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.Marketplace.BaseURL == "" {
		c.Marketplace.BaseURL = "https://webservices.amazon.com"
	}
	if c.Marketplace.Timeout == 0 {
		c.Marketplace.Timeout = 10 * time.Second
	}
	if c.Marketplace.MaxItems == 0 {
		c.Marketplace.MaxItems = 5
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "json"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "./data"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/shopassist.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Daemon.HealthInterval == 0 {
		c.Daemon.HealthInterval = 5 * time.Minute
	}

	// The affiliate package fills its own defaults; only the tag has no
	// fallback because every deployment owns one.
	if len(c.Affiliate.BrandTokens) == 0 || c.Affiliate.SearchBaseURL == "" || len(c.Affiliate.ImageCDNHosts) == 0 {
		def := affiliate.DefaultConfig(c.Affiliate.Tag)
		if len(c.Affiliate.BrandTokens) == 0 {
			c.Affiliate.BrandTokens = def.BrandTokens
		}
		if len(c.Affiliate.ImageCDNHosts) == 0 {
			c.Affiliate.ImageCDNHosts = def.ImageCDNHosts
		}
		if c.Affiliate.SearchBaseURL == "" {
			c.Affiliate.SearchBaseURL = def.SearchBaseURL
		}
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8780,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		LLM: LLMConfig{
			APIKey:     "${OPENROUTER_API_KEY}",
			Model:      "google/gemini-2.0-flash-001",
			MaxHistory: 20,
		},
		Marketplace: MarketplaceConfig{
			AccessKey:  "${AMAZON_ACCESS_KEY}",
			SecretKey:  "${AMAZON_SECRET_KEY}",
			PartnerTag: "${AMAZON_PARTNER_TAG}",
		},
		Affiliate: affiliate.Config{
			Tag: "yourtag-20",
		},
		Store: StoreConfig{
			Backend: "json",
			Dir:     "./data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{Enabled: true},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
