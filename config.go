package sqllog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/axkit/errors"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Config describes logging and database connection settings.
type Config struct {
	Log LogConfig `toml:"log"`
	DB  DBConfig  `toml:"db"`
}

type LogConfig struct {
	// Level is the lowest level written, statement records are written
	// at "debug".
	Level string `toml:"level"`

	// Console enables human readable output instead of JSON.
	Console bool `toml:"console"`
}

type DBConfig struct {
	Driver     string   `toml:"driver"`
	DSN        string   `toml:"dsn"`
	RetryDelay Duration `toml:"retry_delay"`
}

// Duration is time.Duration written in TOML as string, e.g. "1s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Catch(err).Set("value", string(b)).Msg("sqllog: invalid duration")
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns configuration used when there is no config file.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "debug",
		},
		DB: DBConfig{
			Driver:     "sqlite",
			DSN:        ":memory:",
			RetryDelay: Duration(time.Second),
		},
	}
}

// LoadConfig reads config from file path, merging with defaults.
// Returns defaults if the file is missing.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Catch(err).Set("path", path).Msg("sqllog: config read failed")
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Catch(err).Set("path", path).Msg("sqllog: config parse failed")
	}

	return cfg, nil
}

// ConfigPath returns path of config file: $SQLLOG_CONFIG or
// ~/.config/sqllog/config.toml.
func ConfigPath() string {
	if p := os.Getenv("SQLLOG_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "sqllog", "config.toml")
}

// NewLogger builds zerolog.Logger writing into w.
func (lc *LogConfig) NewLogger(w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.DebugLevel
	if lc.Level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(lc.Level); err != nil {
			return zerolog.Nop(), errors.Catch(err).Set("level", lc.Level).Msg("sqllog: invalid log level")
		}
	}

	if lc.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
