package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/rlhf-playground/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PLAYGROUND_"

var validate = validator.New()

// #region config
// Config is the runtime configuration of the playground commands.
type Config struct {
	DBPath           string `yaml:"db_path" validate:"required"`
	HTTPAddr         string `yaml:"http_addr" validate:"required,hostname_port"`
	LogLevel         string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat        string `yaml:"log_format" validate:"oneof=json console"`
	LogOutput        string `yaml:"log_output"`
	LogCapacity      int    `yaml:"log_capacity" validate:"gte=1,lte=1000"`
	ExportDir        string `yaml:"export_dir" validate:"required"`
	DefaultScenario  string `yaml:"default_scenario"`
	DisplayPrecision int    `yaml:"display_precision" validate:"gte=2,lte=3"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:           "playground.db",
		HTTPAddr:         "127.0.0.1:8080",
		LogLevel:         "info",
		LogFormat:        "json",
		LogOutput:        "stderr",
		LogCapacity:      12,
		ExportDir:        ".",
		DisplayPrecision: 3,
	}
}

// Logging returns the logger settings.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat, Output: c.LogOutput}
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// #endregion config

// #region load
// Load layers, in increasing precedence: defaults, the YAML file at path, the
// dotenv file at envFile and the process environment. Empty paths are skipped;
// a missing dotenv file is not an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	// 1. YAML file
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// 2. dotenv, then the real environment on top
	env := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
		}
		for k, v := range vals {
			env[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := env[EnvPrefix+key]
		return v, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	// 3. Validate
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB_PATH":          &cfg.DBPath,
		"HTTP_ADDR":        &cfg.HTTPAddr,
		"LOG_LEVEL":        &cfg.LogLevel,
		"LOG_FORMAT":       &cfg.LogFormat,
		"LOG_OUTPUT":       &cfg.LogOutput,
		"EXPORT_DIR":       &cfg.ExportDir,
		"DEFAULT_SCENARIO": &cfg.DefaultScenario,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LOG_CAPACITY":      &cfg.LogCapacity,
		"DISPLAY_PRECISION": &cfg.DisplayPrecision,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}
	return nil
}

// #endregion load
