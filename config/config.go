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

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Plant    PlantConfig    `mapstructure:"plant"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Labels   LabelsConfig   `mapstructure:"labels"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name" validate:"required"`
	TTL        time.Duration `mapstructure:"ttl" validate:"min=1"`
}

type UploadsConfig struct {
	Dir         string `mapstructure:"dir" validate:"required"`
	MaxFileSize int64  `mapstructure:"max_file_size" validate:"min=1"`
	MaxFiles    int    `mapstructure:"max_files" validate:"min=1"`
}

// PlantConfig holds the production constants used by the OEE computation.
type PlantConfig struct {
	Timezone      string  `mapstructure:"timezone" validate:"required"`
	TargetPerHour float64 `mapstructure:"target_per_hour" validate:"gt=0"`
	QCTarget      int     `mapstructure:"qc_target" validate:"min=0"`
}

type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type LabelsConfig struct {
	PDF       bool          `mapstructure:"pdf"`
	ChromeBin string        `mapstructure:"chrome_bin"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AuthConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute" validate:"min=1"`
	LoginBurst     int `mapstructure:"login_burst" validate:"min=1"`
}

// LoadConfig reads .env, the config file and FEWR_* environment variables,
// in increasing priority, then applies defaults and validates.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/fewr")
	}

	v.SetEnvPrefix("FEWR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath == "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&loaded)

	if err := ValidateConfig(&loaded); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &loaded, nil
}

// bindEnvKeys makes AutomaticEnv visible to Unmarshal for keys that have no
// value in the config file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.address", "server.shutdown_timeout",
		"database.path",
		"session.cookie_name", "session.ttl",
		"uploads.dir", "uploads.max_file_size", "uploads.max_files",
		"plant.timezone", "plant.target_per_hour", "plant.qc_target",
		"catalog.path", "catalog.watch",
		"labels.pdf", "labels.chrome_bin", "labels.timeout",
		"logging.level", "logging.format",
		"metrics.enabled", "metrics.path",
		"auth.login_per_minute", "auth.login_burst",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// Location resolves the plant timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Plant.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
