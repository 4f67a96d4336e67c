// Package config loads postclean settings from defaults, an optional
// .postclean.yaml file, POSTCLEAN_* environment variables and bound CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

// ErrConfiguration marks any failure to read, parse or validate settings.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is the prefix for environment overrides, e.g. POSTCLEAN_STORE_DSN.
const EnvPrefix = "POSTCLEAN"

// Default values
const (
	DefaultLogLevel         = "info"
	DefaultDriver           = "sqlite"
	DefaultDSN              = "postclean.db"
	DefaultTable            = "blogs"
	DefaultBatchSize        = 10
	DefaultConcurrency      = 4
	DefaultMinContentLength = 50
	DefaultMaxContentSize   = "16MiB"
	DefaultPreset           = "default"
	DefaultServerAddr       = ":8080"
	DefaultReadTimeout      = 15 * time.Second
	DefaultMaxBodySize      = "4MiB"
	DefaultReportFormat     = "json"
)

// Config is the complete runtime configuration.
type Config struct {
	LogLevel string       `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Store    StoreConfig  `mapstructure:"store"`
	Batch    BatchConfig  `mapstructure:"batch"`
	Scrub    ScrubConfig  `mapstructure:"scrub"`
	Server   ServerConfig `mapstructure:"server"`
	Report   ReportConfig `mapstructure:"report"`
}

// StoreConfig selects the row store.
type StoreConfig struct {
	Driver  string `mapstructure:"driver" validate:"oneof=sqlite mysql"`
	DSN     string `mapstructure:"dsn" validate:"required"`
	Table   string `mapstructure:"table" validate:"required,max=64"`
	Migrate bool   `mapstructure:"migrate"`
}

// BatchConfig tunes the bulk driver.
type BatchConfig struct {
	Size             int    `mapstructure:"size" validate:"min=1,max=1000"`
	Concurrency      int    `mapstructure:"concurrency" validate:"min=1,max=64"`
	DryRun           bool   `mapstructure:"dry_run"`
	MinContentLength int    `mapstructure:"min_content_length" validate:"min=0"`
	MaxContentSize   string `mapstructure:"max_content_size" validate:"bytesize"`
}

// MaxContentBytes is MaxContentSize in bytes. Zero disables the limit.
func (b BatchConfig) MaxContentBytes() uint64 {
	n, _ := humanize.ParseBytes(b.MaxContentSize)
	return n
}

// ScrubConfig selects the cleaning preset.
type ScrubConfig struct {
	Preset      string `mapstructure:"preset" validate:"oneof=default minimal legacy"`
	Placeholder string `mapstructure:"placeholder"`
}

// Cleaner returns the scrub configuration for the preset, with the
// placeholder override applied.
func (s ScrubConfig) Cleaner() *scrub.Config {
	cfg := scrub.Preset(s.Preset)
	if cfg == nil {
		cfg = scrub.DefaultConfig()
	}
	if s.Placeholder != "" {
		cfg.EmptyPlaceholder = s.Placeholder
	}
	return cfg
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr" validate:"required"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	MaxBodySize string        `mapstructure:"max_body_size" validate:"bytesize"`
}

// MaxBodyBytes is MaxBodySize in bytes.
func (s ServerConfig) MaxBodyBytes() int64 {
	n, _ := humanize.ParseBytes(s.MaxBodySize)
	return int64(n)
}

// ReportConfig configures the bulk report.
type ReportConfig struct {
	Format string `mapstructure:"format" validate:"oneof=json jsonl yaml"`
	Path   string `mapstructure:"path"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetDefault("store.driver", DefaultDriver)
	v.SetDefault("store.dsn", DefaultDSN)
	v.SetDefault("store.table", DefaultTable)
	v.SetDefault("store.migrate", true)

	v.SetDefault("batch.size", DefaultBatchSize)
	v.SetDefault("batch.concurrency", DefaultConcurrency)
	v.SetDefault("batch.dry_run", false)
	v.SetDefault("batch.min_content_length", DefaultMinContentLength)
	v.SetDefault("batch.max_content_size", DefaultMaxContentSize)

	v.SetDefault("scrub.preset", DefaultPreset)
	v.SetDefault("scrub.placeholder", "")

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.max_body_size", DefaultMaxBodySize)

	v.SetDefault("report.format", DefaultReportFormat)
	v.SetDefault("report.path", "")
}

// Setup prepares v for loading: defaults, environment overrides and the
// config file search path. An explicit file wins over the search path.
func Setup(v *viper.Viper, file string) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetConfigName(".postclean")
	v.SetConfigType("yaml")
}

// Load reads the config file (a missing file in the search path is fine),
// unmarshals all settings and validates them.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration built from defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("bytesize", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := humanize.ParseBytes(s)
		return err == nil
	})
	return v
}
