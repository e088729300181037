package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// FileNames are the config file names looked up, in order
var FileNames = []string{"hyperspace.yaml", "hyperspace.yml"}

// EnvPrefix prefixes every environment override, e.g. HYPERSPACE_REDIS_ADDR
const EnvPrefix = "HYPERSPACE"

// Config is the hyperspace CLI configuration
type Config struct {
	Model string      `mapstructure:"model"`
	Redis RedisConfig `mapstructure:"redis"`
	Log   LogConfig   `mapstructure:"log"`
}

// RedisConfig selects and tunes the Redis connection
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	ScanCount   int64         `mapstructure:"scan_count"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Options converts the config into go-redis client options
func (c RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:        c.Addr,
		Username:    c.Username,
		Password:    c.Password,
		DB:          c.DB,
		PoolSize:    c.PoolSize,
		DialTimeout: c.DialTimeout,
	}
}

// Load reads the configuration. An explicit path must exist; otherwise the
// nearest hyperspace.yaml found walking up from the working directory is
// used, and defaults apply when there is none. Environment variables
// override both.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("model", "forum")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.scan_count", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		found, err := FindConfigFile()
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfigFile returns the nearest config file at or above the working
// directory, or "" when there is none
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	var errs []error

	if _, _, err := net.SplitHostPort(cfg.Redis.Addr); err != nil {
		errs = append(errs, fmt.Errorf("redis.addr must be host:port, got %q", cfg.Redis.Addr))
	}
	if cfg.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db must not be negative, got %d", cfg.Redis.DB))
	}
	if cfg.Redis.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("redis.pool_size must be positive, got %d", cfg.Redis.PoolSize))
	}
	if cfg.Redis.DialTimeout <= 0 {
		errs = append(errs, fmt.Errorf("redis.dial_timeout must be positive, got %s", cfg.Redis.DialTimeout))
	}
	if cfg.Redis.ScanCount <= 0 {
		errs = append(errs, fmt.Errorf("redis.scan_count must be positive, got %d", cfg.Redis.ScanCount))
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}
