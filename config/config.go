// Package config loads the service configuration from a YAML file and MOVIES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort       = errors.New("invalid server port")
	ErrInvalidDataDir    = errors.New("storage data dir must be set")
	ErrInvalidLogSize    = errors.New("storage max log size must be positive")
	ErrInvalidSchedule   = errors.New("invalid checkpoint schedule")
	ErrInvalidLogFormat  = errors.New("logging format must be json or console")
	ErrMissingImportGlob = errors.New("ingest csv glob must be set when importing on start")
)

// Default configuration values.
const (
	defaultPort       = 8080
	defaultHost       = "0.0.0.0"
	defaultMaxLogSize = 4 << 20
	maxPort           = 65535
)

// CronParser parses checkpoint schedules. Standard five field specs and descriptors such as
// "@every 10m" are accepted.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds all configuration for the movies service.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds catalog storage configuration.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	MaxLogSize int64  `mapstructure:"max_log_size"`
	SyncWrites bool   `mapstructure:"sync_writes"`
	// CheckpointSchedule is a cron spec. Empty disables scheduled checkpoints.
	CheckpointSchedule string `mapstructure:"checkpoint_schedule"`
}

// IngestConfig holds CSV import configuration.
type IngestConfig struct {
	CSVGlob string `mapstructure:"csv_glob"`
	// ImportOnStart imports CSVGlob when the server starts with an empty catalog.
	ImportOnStart bool `mapstructure:"import_on_start"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/movies")
	}

	viperCfg.SetEnvPrefix("MOVIES")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("server.host", defaultHost)
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.read_timeout", "15s")
	viperCfg.SetDefault("server.write_timeout", "30s")
	viperCfg.SetDefault("server.idle_timeout", "60s")
	viperCfg.SetDefault("server.shutdown_timeout", "10s")

	viperCfg.SetDefault("storage.data_dir", "./data")
	viperCfg.SetDefault("storage.max_log_size", defaultMaxLogSize)
	viperCfg.SetDefault("storage.sync_writes", false)
	viperCfg.SetDefault("storage.checkpoint_schedule", "@every 1h")

	viperCfg.SetDefault("ingest.csv_glob", "./movielist.csv")
	viperCfg.SetDefault("ingest.import_on_start", true)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "json")

	viperCfg.SetDefault("tracing.service_name", "movies")
	viperCfg.SetDefault("tracing.otlp_endpoint", "")
	viperCfg.SetDefault("tracing.otlp_insecure", false)
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if strings.TrimSpace(config.Storage.DataDir) == "" {
		return ErrInvalidDataDir
	}

	if config.Storage.MaxLogSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLogSize, config.Storage.MaxLogSize)
	}

	if config.Storage.CheckpointSchedule != "" {
		if _, err := CronParser.Parse(config.Storage.CheckpointSchedule); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, config.Storage.CheckpointSchedule, err)
		}
	}

	if config.Ingest.ImportOnStart && strings.TrimSpace(config.Ingest.CSVGlob) == "" {
		return ErrMissingImportGlob
	}

	switch config.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}
