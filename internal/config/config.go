package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/bec-analyzer/")
	v.AddConfigPath("$HOME/.bec-analyzer")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("BEC_ANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Organization defaults
	v.SetDefault("org.domain", "example.com")
	v.SetDefault("org.executives", []string{})

	// Fusion weight defaults
	v.SetDefault("fusion.trust_weight", 0.35)
	v.SetDefault("fusion.temporal_weight", 0.30)
	v.SetDefault("fusion.stylometry_weight", 0.25)
	v.SetDefault("fusion.payment_weight", 0.10)

	// Server defaults
	v.SetDefault("server.http_address", "0.0.0.0:5006")
	v.SetDefault("server.filter_enabled", false)
	v.SetDefault("server.filter_address", "0.0.0.0:10025")
	v.SetDefault("server.block_critical", false)
	v.SetDefault("server.headers.level", "X-BEC-Risk-Level")
	v.SetDefault("server.headers.score", "X-BEC-Risk-Score")
	v.SetDefault("server.headers.factors", "X-BEC-Factors")
	v.SetDefault("server.postfix.enabled", false)
	v.SetDefault("server.postfix.address", "127.0.0.1")
	v.SetDefault("server.postfix.port", 10026)

	// Training defaults
	v.SetDefault("training.corpus_dir", "")
	v.SetDefault("training.use_demo_corpus", true)

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.retention", "720h")
	v.SetDefault("store.cleanup_frequency", "1h")
	v.SetDefault("store.sqlite_path", "/data/bec_verdicts.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/bec_analyzer?parseTime=true")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
