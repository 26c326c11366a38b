/*
Package config loads runtime settings.

PRECEDENCE (highest first):
  command-line flags > ATTENDANCE_* environment > config file > defaults

  ATTENDANCE_ROSTER_ROOT=/srv/faces ATTENDANCE_SERVER_PORT=9000 attendance serve

The config file is optional. When no path is given, config.yaml is looked up
in ./config and the working directory; a missing file is not an error.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/warp/attendance-engine/attendance"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ATTENDANCE"

type Config struct {
	RosterRoot      string   `mapstructure:"roster_root"`
	DurationSource  string   `mapstructure:"duration_source"`
	ExpectedMinutes float64  `mapstructure:"expected_minutes"`
	DuplicatePolicy string   `mapstructure:"duplicate_policy"`
	CSVDelimiter    string   `mapstructure:"csv_delimiter"`
	Server          Server   `mapstructure:"server"`
	DB              DB       `mapstructure:"db"`
	Snapshot        Snapshot `mapstructure:"snapshot"`
	Log             Log      `mapstructure:"log"`
}

type Server struct {
	Port int  `mapstructure:"port"`
	CORS CORS `mapstructure:"cors"`
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DB locates the SQLite file holding snapshot history.
type DB struct {
	Path string `mapstructure:"path"`
}

// Snapshot controls periodic persistence while serving. Zero disables it.
type Snapshot struct {
	Interval time.Duration `mapstructure:"interval"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"roster":    "roster_root",
	"durations": "duration_source",
	"expected":  "expected_minutes",
	"log-level": "log.level",
	"db":        "db.path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("roster_root", "known_faces")
	v.SetDefault("duration_source", "face_time_report.csv")
	v.SetDefault("expected_minutes", 300)
	v.SetDefault("duplicate_policy", string(attendance.LastWins))
	v.SetDefault("csv_delimiter", ",")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetDefault("db.path", "attendance.db")
	v.SetDefault("snapshot.interval", "0s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from defaults, an optional file, the environment
// and any flags in flags that were set. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &attendance.ConfigurationError{Setting: "config", Value: path, Reason: "cannot read config file", Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &attendance.ConfigurationError{Setting: "config", Value: path, Reason: "cannot decode settings", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every setting the engine or server depends on.
func (c *Config) Validate() error {
	invalid := func(setting string, value any, reason string) error {
		return &attendance.ConfigurationError{Setting: setting, Value: fmt.Sprint(value), Reason: reason}
	}

	if strings.TrimSpace(c.RosterRoot) == "" {
		return invalid("roster_root", c.RosterRoot, "must not be empty")
	}
	if strings.TrimSpace(c.DurationSource) == "" {
		return invalid("duration_source", c.DurationSource, "must not be empty")
	}
	if c.ExpectedMinutes <= 0 {
		return invalid("expected_minutes", c.ExpectedMinutes, "must be positive")
	}
	if _, err := attendance.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		return invalid("csv_delimiter", c.CSVDelimiter, "must be a single character")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port", c.Server.Port, "must be between 1 and 65535")
	}
	if c.Snapshot.Interval < 0 {
		return invalid("snapshot.interval", c.Snapshot.Interval, "must not be negative")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format", c.Log.Format, "must be json or console")
	}
	return nil
}

// Options returns the reconciliation options. Call after Validate.
func (c *Config) Options() attendance.Options {
	policy, _ := attendance.ParseDuplicatePolicy(c.DuplicatePolicy)
	return attendance.Options{
		ExpectedMinutes: decimal.NewFromFloat(c.ExpectedMinutes),
		Duplicates:      policy,
	}
}

// Delimiter returns the CSV field separator. Call after Validate.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
