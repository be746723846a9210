// Package config assembles the service configuration from defaults, an
// optional JSON config file, environment variables and command line
// flags. Later sources win: defaults < JSON < environment < flags.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"-"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DBFileName:          "",
	DatabaseDSN:         "",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/fitlog/migrations",
	TrustedSubnet:       "",
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (cfg *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(cfg)
}

func applyDefaults(cfg *Config, defaults Config) {
	*cfg = defaults
}

func applyNonEmpty(cfg *Config, overrides *Config) {
	if overrides.RunAddr != "" {
		cfg.RunAddr = overrides.RunAddr
	}

	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	if overrides.DBFileName != "" {
		cfg.DBFileName = overrides.DBFileName
	}

	if overrides.DatabaseDSN != "" {
		cfg.DatabaseDSN = overrides.DatabaseDSN
	}

	if overrides.DBConnectionTimeout != 0 {
		cfg.DBConnectionTimeout = overrides.DBConnectionTimeout
	}

	if overrides.MigrationsDir != "" {
		cfg.MigrationsDir = overrides.MigrationsDir
	}

	if overrides.TrustedSubnet != "" {
		cfg.TrustedSubnet = overrides.TrustedSubnet
	}
}

func applyJSONConfig(cfg *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var valuesFromJSON Config
	if err := json.Unmarshal(data, &valuesFromJSON); err != nil {
		return err
	}

	applyNonEmpty(cfg, &valuesFromJSON)

	return nil
}

// InitOption is a functional option for New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command line parsing, which tests use
// to keep the test binary's own flags out of the configuration.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration from all sources and validates it.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{}
	applyDefaults(cfg, defaultConfig)

	flagValues := &Config{}
	var configPath string
	flagSet := flag.NewFlagSet("fitlog", flag.ContinueOnError)
	flagSet.StringVar(&flagValues.RunAddr, "a", "", "address and port to run server")
	flagSet.StringVar(&flagValues.LogLevel, "l", "", "logger level")
	flagSet.StringVar(&flagValues.DBFileName, "f", "", "JSON file name with database")
	flagSet.StringVar(&flagValues.DatabaseDSN, "d", "", "a string with the database connection details")
	flagSet.StringVar(&flagValues.MigrationsDir, "m", "", "directory with goose migrations")
	flagSet.StringVar(&flagValues.TrustedSubnet, "t", "", "trusted subnet in CIDR notation for the internal stats endpoint")
	flagSet.StringVar(&configPath, "c", "", "path to a JSON config file")
	if !options.disableFlagsParsing {
		if err := flagSet.Parse(os.Args[1:]); err != nil {
			return nil, err
		}
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}
	if configPath != "" {
		if err := applyJSONConfig(cfg, configPath); err != nil {
			return nil, err
		}
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}
	applyNonEmpty(cfg, &valuesFromEnv)

	applyNonEmpty(cfg, flagValues)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
