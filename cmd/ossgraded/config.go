package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// daemonConfig is the ossgraded service configuration. The grading rules
// themselves live in the ossgrade config file named by Grading.Config.
type daemonConfig struct {
	Server   serverConfig   `mapstructure:"server"`
	Grading  gradingConfig  `mapstructure:"grading"`
	Database databaseConfig `mapstructure:"database"`
	Training trainingConfig `mapstructure:"training"`
	Logging  loggingConfig  `mapstructure:"logging"`
}

type serverConfig struct {
	Addr            string        `mapstructure:"addr"`
	CacheSize       int           `mapstructure:"cache_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type gradingConfig struct {
	Config string `mapstructure:"config"`
}

// databaseConfig is optional. Without a URL classifiers are kept in the
// blob store and labels are read from Training.Labels.
type databaseConfig struct {
	URL string `mapstructure:"url"`
}

type trainingConfig struct {
	Labels  string `mapstructure:"labels"`
	OnStart bool   `mapstructure:"on_start"`
}

type loggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// loadDaemonConfig reads the optional config file and OSSGRADED_* environment
// overrides, e.g. OSSGRADED_DATABASE_URL.
func loadDaemonConfig(path string) (*daemonConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OSSGRADED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg daemonConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cache_size", 256)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("grading.config", "")
	v.SetDefault("database.url", "")

	v.SetDefault("training.labels", "labels.yaml")
	v.SetDefault("training.on_start", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are usable.
func (c *daemonConfig) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.CacheSize < 1 {
		return fmt.Errorf("server.cache_size must be at least 1")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Database.URL == "" && c.Training.Labels == "" {
		return fmt.Errorf("training.labels is required without database.url")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	return nil
}

// newLogger builds the service logger. Validate must have passed.
func (c *daemonConfig) newLogger() *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Logging.Level))
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("timestamp", a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	if c.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
