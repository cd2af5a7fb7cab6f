package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gr-butler/highlow/apperr"
	"github.com/gr-butler/highlow/env"
	"github.com/spf13/viper"
)

// Config holds all configuration for the station service
type Config struct {
	Station         StationConfig  `mapstructure:"station"`
	Database        DatabaseConfig `mapstructure:"database"`
	Retry           RetryConfig    `mapstructure:"retry"`
	MQTT            MQTTConfig     `mapstructure:"mqtt"`
	HTTP            HTTPConfig     `mapstructure:"http"`
	Storage         StorageConfig  `mapstructure:"storage"`
	Log             LogConfig      `mapstructure:"log"`
	PublishInterval time.Duration  `mapstructure:"publish_interval"`
}

type StationConfig struct {
	UnitSystem string `mapstructure:"unit_system"`
	Timezone   string `mapstructure:"timezone"`
}

// Location is the zone calendar days are counted in.
func (s StationConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	ConnectTimeout  int    `mapstructure:"connect_timeout"`
	ApplicationName string `mapstructure:"application_name"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type StorageConfig struct {
	LegacyFile string `mapstructure:"legacy_file"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Load reads configuration from defaults, an optional yaml file and HIGHLOW_ environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HIGHLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("highlow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, apperr.NewConfigurationError("config validation error", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("station.unit_system", env.UnitsMetric)
	v.SetDefault("station.timezone", "Local")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "weather")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "weather")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.connect_timeout", 10)
	v.SetDefault("database.application_name", "highlow")

	v.SetDefault("retry.attempts", env.RetryAttempts)
	v.SetDefault("retry.delay", env.RetryDelay)

	v.SetDefault("mqtt.enabled", true)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "highlow")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "weather")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("http.address", ":80")
	v.SetDefault("storage.legacy_file", env.LegacyStorageFile)
	v.SetDefault("log.level", "info")
	v.SetDefault("publish_interval", "1m")
}

func validate(cfg *Config) error {
	switch cfg.Station.UnitSystem {
	case env.UnitsMetric, env.UnitsImperial:
	default:
		return fmt.Errorf("unit system must be %v or %v, got [%v]", env.UnitsMetric, env.UnitsImperial, cfg.Station.UnitSystem)
	}
	if _, err := cfg.Station.Location(); err != nil {
		return fmt.Errorf("bad timezone [%v]: %w", cfg.Station.Timezone, err)
	}
	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver [%v]", cfg.Database.Driver)
	}
	if cfg.Retry.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}
	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	if cfg.PublishInterval <= 0 {
		return fmt.Errorf("publish interval must be positive")
	}
	return nil
}
