package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Upstream        UpstreamConfig        `mapstructure:"upstream"`
	Validation      ValidationConfig      `mapstructure:"validation"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation"`
	JWTSecret       string                `mapstructure:"jwt_secret"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig locates the dataset API that serves schemas and the
// store index.
type UpstreamConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutMs) * time.Millisecond
}

type ValidationConfig struct {
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes"`
	MaxJobs         int `mapstructure:"max_jobs"`
}

func (v ValidationConfig) CacheTTL() time.Duration {
	return time.Duration(v.CacheTTLMinutes) * time.Minute
}

// DatabaseConfig configures the optional audit store. When Enabled is
// false the service runs fully in-memory.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ConnString returns the PostgreSQL connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type InstrumentationConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	RingSize int  `mapstructure:"ring_size"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../..")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("upstream.base_url", "http://localhost:5173")
	viper.SetDefault("upstream.timeout_ms", 30000)
	viper.SetDefault("validation.cache_ttl_minutes", 30)
	viper.SetDefault("validation.max_jobs", 100)
	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.pool_size", 5)
	viper.SetDefault("instrumentation.enabled", true)
	viper.SetDefault("instrumentation.ring_size", 500)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
