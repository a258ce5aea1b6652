// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort      = 8060
	defaultServerTimeout   = 30 * time.Second
	defaultRedisAddress    = "localhost:6379"
	defaultIntervalMinutes = 15
	defaultSpanHours       = 24
	defaultCrumbReuse      = 20
	defaultGatewayTimeout  = 30 * time.Second
	defaultTimezone        = "Asia/Tokyo"
)

type Config struct {
	Debug    bool           `mapstructure:"debug"`
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// RedisConfig holds Redis connection configuration for event publishing.
// Enabled is a feature flag; the service runs fine without Redis.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// AnalysisConfig controls the series fetch window and the default
// reference issue used when a start request leaves it out.
type AnalysisConfig struct {
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	SpanHours       int    `mapstructure:"span_hours"`
	ReferenceIssue  int    `mapstructure:"reference_issue"`
	Timezone        string `mapstructure:"timezone"`
}

type GatewayConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	CrumbReuse int           `mapstructure:"crumb_reuse"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	WorksFile string `mapstructure:"works_file"`
}

// Interval returns the bucket width of the fetched series.
func (a AnalysisConfig) Interval() time.Duration {
	return time.Duration(a.IntervalMinutes) * time.Minute
}

// Span returns the total fetch period.
func (a AnalysisConfig) Span() time.Duration {
	return time.Duration(a.SpanHours) * time.Hour
}

// Location resolves the configured timezone.
func (a AnalysisConfig) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Analysis.IntervalMinutes <= 0 {
		return errors.New("analysis.interval_minutes must be positive")
	}
	if c.Analysis.SpanHours <= 0 {
		return errors.New("analysis.span_hours must be positive")
	}
	if _, err := c.Analysis.Location(); err != nil {
		return fmt.Errorf("analysis.timezone is invalid: %w", err)
	}
	if c.Gateway.BaseURL == "" {
		return errors.New("gateway.base_url is required")
	}
	if c.Gateway.CrumbReuse <= 0 {
		return errors.New("gateway.crumb_reuse must be positive")
	}
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	return nil
}

// Load reads configuration from the given YAML file (missing file is fine)
// with environment variables taking precedence. A .env file is honored
// when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("redis.address", defaultRedisAddress)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("analysis.interval_minutes", defaultIntervalMinutes)
	v.SetDefault("analysis.span_hours", defaultSpanHours)
	v.SetDefault("analysis.reference_issue", 0)
	v.SetDefault("analysis.timezone", defaultTimezone)
	v.SetDefault("gateway.base_url", "https://search.yahoo.co.jp")
	v.SetDefault("gateway.crumb_reuse", defaultCrumbReuse)
	v.SetDefault("gateway.timeout", defaultGatewayTimeout)
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.works_file", "./works.xlsx")
}
