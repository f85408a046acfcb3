package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider modes
const (
	ProviderModeOpenAI   = "openai"
	ProviderModeScenario = "scenario"
	ProviderModePlayback = "playback"
	ProviderModeRecord   = "record"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	OpenAI     OpenAIConfig   `mapstructure:"openai"`
	Lark       LarkConfig     `mapstructure:"lark"`
	Logger     LoggerConfig   `mapstructure:"logger"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
	Validation ValidationFile `mapstructure:"validation"`
	Provider   ProviderConfig `mapstructure:"provider"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the recordings database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	// Timeout overrides the ValidationConfig request_timeout when set
	Timeout     time.Duration `mapstructure:"timeout"`
	CostPer1K   float64       `mapstructure:"cost_per_1k_tokens"`
	// PromptsPath optionally points at a YAML file overriding the prompts
	PromptsPath string        `mapstructure:"prompts_path"`
}

// LarkConfig holds Lark API configuration for review notifications.
// Notifications are disabled when AppID is empty.
type LarkConfig struct {
	AppID         string        `mapstructure:"app_id"`
	AppSecret     string        `mapstructure:"app_secret"`
	ReviewChatID  string        `mapstructure:"review_chat_id"`
	ReceiveIDType string        `mapstructure:"receive_id_type"`
	APITimeout    time.Duration `mapstructure:"api_timeout"`
}

// Enabled reports whether Lark credentials are configured
func (c LarkConfig) Enabled() bool {
	return c.AppID != ""
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// MetricsConfig holds prometheus configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ValidationFile points at the ValidationConfig document the server runs with
type ValidationFile struct {
	ConfigPath string `mapstructure:"config_path"`
	ProjectID  string `mapstructure:"project_id"`
}

// ProviderConfig selects the ContentGenerationProvider
type ProviderConfig struct {
	Mode            string `mapstructure:"mode"`
	DefaultScenario string `mapstructure:"default_scenario"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Provider.DefaultScenario = strings.ToUpper(cfg.Provider.DefaultScenario)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/recordings.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("openai.max_tokens", 1500)
	v.SetDefault("openai.cost_per_1k_tokens", 0.002)

	// Lark defaults
	v.SetDefault("lark.receive_id_type", "chat_id")
	v.SetDefault("lark.api_timeout", 30*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "content_validation")

	// Validation defaults
	v.SetDefault("validation.project_id", "default")

	// Provider defaults
	v.SetDefault("provider.mode", ProviderModeScenario)
	v.SetDefault("provider.default_scenario", "SUCCESS")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("lark.review_chat_id", "LARK_REVIEW_CHAT_ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Provider.Mode {
	case ProviderModeOpenAI, ProviderModeRecord:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required for provider mode %q", c.Provider.Mode)
		}
	case ProviderModeScenario, ProviderModePlayback:
	default:
		return fmt.Errorf("provider.mode must be one of openai, scenario, playback, record; got %q", c.Provider.Mode)
	}

	switch c.Provider.DefaultScenario {
	case "SUCCESS", "HIGH_QUALITY", "LOW_QUALITY", "FAILURE", "TIMEOUT", "RATE_LIMIT",
		"INVALID_RESPONSE", "PARTIAL_FAILURE", "EDGE_CASE":
	default:
		return fmt.Errorf("provider.default_scenario %q is not a known scenario", c.Provider.DefaultScenario)
	}

	if c.Provider.Mode == ProviderModePlayback || c.Provider.Mode == ProviderModeRecord {
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for provider mode %q", c.Provider.Mode)
		}
	}

	if c.Lark.Enabled() {
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark.app_id is set")
		}
		if c.Lark.ReviewChatID == "" {
			return fmt.Errorf("lark.review_chat_id is required when lark.app_id is set")
		}
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}

	return nil
}
