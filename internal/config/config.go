package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	LogLevel string         `mapstructure:"log_level"`

	path string
}

// LLMConfig configures the chat-completion endpoint
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// RankingConfig controls match analysis of leads
type RankingConfig struct {
	OnCreate          bool    `mapstructure:"on_create"`
	Concurrency       int     `mapstructure:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type ScraperConfig struct {
	Render  bool          `mapstructure:"render"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Path returns the file the config was loaded from
func (c *Config) Path() string {
	return c.path
}

// Dir returns the prospector home directory (~/.prospector)
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".prospector"), nil
}

// DefaultPath returns the path to the default config file
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration file at path, creating it with defaults when missing.
// An empty path means DefaultPath. Values from .env and PROSPECTOR_* variables win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultConfig(path); err != nil {
			return nil, err
		}
	}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{path: path}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(filepath.Dir(path), "prospector.db")
	}
	return cfg, nil
}

func newViper(path string) *viper.Viper {
	v := fileViper(path)
	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", "PROSPECTOR_LLM_API_KEY", "OPENROUTER_API_KEY")
	return v
}

// fileViper sees only the file and defaults, so writing it never persists environment values
func fileViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("database.path", "")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("ranking.on_create", true)
	v.SetDefault("ranking.concurrency", 4)
	v.SetDefault("ranking.requests_per_second", 2.0)
	v.SetDefault("scraper.render", false)
	v.SetDefault("scraper.timeout", 30*time.Second)
	v.SetDefault("log_level", "info")
	return v
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) error {
	defaultConfig := `# Prospector Configuration
llm:
  # OpenAI-compatible chat completions endpoint (OpenRouter by default)
  base_url: https://openrouter.ai/api/v1
  model: anthropic/claude-3.5-sonnet
  timeout: 60s
  # API key (keep this file secure!) - PROSPECTOR_LLM_API_KEY or OPENROUTER_API_KEY also work
  api_key: ""

server:
  addr: ":8000"

ranking:
  # Analyze new leads against the active resume as soon as they are added
  on_create: true
  concurrency: 4
  requests_per_second: 2

scraper:
  # Use headless Chrome to fetch JavaScript-rendered postings
  render: false
  timeout: 30s

log_level: info
`
	if err := os.WriteFile(path, []byte(defaultConfig), 0600); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

// Set updates a configuration value in the file at path
func Set(path, key, value string) error {
	v := fileViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	v.Set(key, value)
	return v.WriteConfig()
}

// Get retrieves a configuration value from the file at path, environment overrides applied
func Get(path, key string) (string, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return v.GetString(key), nil
}
