package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is prepended to every setting when read from the environment, e.g. TT_FEED.
	EnvPrefix = "TT"
	// OutJSONEnvVar names the connection index path without the prefix, as used by the page build scripts.
	OutJSONEnvVar = "OUT_JSON"
	// DotEnvFile is loaded into the environment if present.
	DotEnvFile = ".env"

	feedKey     = "feed"
	stopsKey    = "stops"
	outDirKey   = "out_dir"
	outJSONKey  = "out_json"
	sqliteKey   = "sqlite"
	timezoneKey = "timezone"
	daysKey     = "days"
	modeKey     = "mode"
	scheduleKey = "schedule"
	httpAddrKey = "http_addr"
	logLevelKey = "log_level"
	configKey   = "config"
)

var (
	// ErrInvalidConfig is returned if the loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the settings shared by the timetable commands.
type Config struct {
	Feed       string   `mapstructure:"feed" yaml:"feed" validate:"required"`
	Stops      []string `mapstructure:"stops" yaml:"stops"`
	OutDir     string   `mapstructure:"out_dir" yaml:"out_dir" validate:"required"`
	OutJSON    string   `mapstructure:"out_json" yaml:"out_json"`
	SQLitePath string   `mapstructure:"sqlite" yaml:"sqlite"`
	Timezone   string   `mapstructure:"timezone" yaml:"timezone" validate:"required,timezone"`
	WindowDays int      `mapstructure:"days" yaml:"days" validate:"gte=1,lte=366"`
	Mode       string   `mapstructure:"mode" yaml:"mode" validate:"oneof=daily compact"`
	Schedule   string   `mapstructure:"schedule" yaml:"schedule" validate:"required"`
	HTTPAddr   string   `mapstructure:"http_addr" yaml:"http_addr" validate:"required"`
	LogLevel   string   `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(feedKey, "gtfs_tmp")
	v.SetDefault(outDirKey, ".")
	v.SetDefault(timezoneKey, "Europe/Ljubljana")
	v.SetDefault(daysKey, 10)
	v.SetDefault(modeKey, "daily")
	v.SetDefault(scheduleKey, "5 0 * * *")
	v.SetDefault(httpAddrKey, ":8080")
	v.SetDefault(logLevelKey, "info")
}

// RegisterFlags adds the common flags to fs.
// Flag names use dashes in place of the underscores of the matching config keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(configKey, "", "path to a config file (yaml, json or toml)")
	fs.String(feedKey, "", "GTFS feed directory, zip file or URL")
	fs.String("out-dir", "", "directory the site is written to")
	fs.String("out-json", "", "path the connection index JSON is written to or read from")
	fs.String(sqliteKey, "", "optional sqlite file the connection index is exported to")
	fs.String(timezoneKey, "", "timezone deciding which date is today")
	fs.Int(daysKey, 0, "number of days shown on each route page")
	fs.String(modeKey, "", "route page layout: daily or compact")
	fs.String("log-level", "", "log level: debug, info, warn or error")
}

// Load reads the configuration from, in increasing priority, defaults, an optional config file,
// the environment (after loading .env) and the flags in fs that were set.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, key := range []string{feedKey, stopsKey, outDirKey, sqliteKey, timezoneKey, daysKey, modeKey, scheduleKey, httpAddrKey, logLevelKey, configKey} {
		v.BindEnv(key)
	}
	v.BindEnv(outJSONKey, OutJSONEnvVar)

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	if path := v.GetString(configKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// NewLogger builds a development logger writing to stderr at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	return NewLogger(c.LogLevel)
}

// NewLogger builds a development logger writing to stderr at the supplied level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	return cfg.Build()
}
