// Package config loads litera's configuration from the config file,
// LITERA_ environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/sadopc/litera/internal/reminder"
	"github.com/sadopc/litera/internal/store"
)

// Keys
const (
	KeyDBPath       = "db_path"
	KeyLogLevel     = "log.level"
	KeyLogFile      = "log.file"
	KeyExportDir    = "export.dir"
	KeyWorkMinutes  = "pomodoro.work_minutes"
	KeyBreakMinutes = "pomodoro.break_minutes"
	KeyReminderTime = "reminder.time"
	KeyTheme        = "theme"
	EnvPrefix       = "LITERA"
	configName      = "config"
	appDirName      = "litera"
	defaultLogLevel = "info"
	defaultLogName  = "litera.log"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	DBPath    string
	LogLevel  string
	LogFile   string
	ExportDir string

	// Settings holds explicitly configured runtime settings, keyed by
	// store setting key.
	Settings map[string]string
}

// Dir returns the directory holding the config file, database and log.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("find config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// SetDefaults registers the defaults for keys that always have a value.
// Runtime settings have no viper default: the store seeds those.
func SetDefaults(v *viper.Viper) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return fmt.Errorf("find database path: %w", err)
	}
	v.SetDefault(KeyDBPath, dbPath)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFile, filepath.Join(dir, defaultLogName))
	v.SetDefault(KeyExportDir, ".")
	return nil
}

// Read points v at cfgFile, or at config.yaml in the litera config
// directory and the working directory, and reads it. A missing default
// config file is not an error.
func Read(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBPath:    ExpandPath(v.GetString(KeyDBPath)),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFile:   ExpandPath(v.GetString(KeyLogFile)),
		ExportDir: ExpandPath(v.GetString(KeyExportDir)),
		Settings:  map[string]string{},
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidConfig, KeyDBPath)
	}

	for _, key := range []string{KeyWorkMinutes, KeyBreakMinutes} {
		if !v.IsSet(key) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive number of minutes", ErrInvalidConfig, key)
		}
		cfg.Settings[settingFor(key)] = strconv.Itoa(n)
	}

	if v.IsSet(KeyReminderTime) {
		at := strings.TrimSpace(v.GetString(KeyReminderTime))
		if _, _, err := reminder.ParseTime(at); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		cfg.Settings[store.SettingReminderTime] = at
	}

	if v.IsSet(KeyTheme) {
		theme := strings.ToLower(strings.TrimSpace(v.GetString(KeyTheme)))
		if theme != "light" && theme != "dark" {
			return nil, fmt.Errorf("%w: theme must be light or dark", ErrInvalidConfig)
		}
		cfg.Settings[store.SettingTheme] = theme
	}
	return cfg, nil
}

func settingFor(key string) string {
	if key == KeyWorkMinutes {
		return store.SettingPomodoroWork
	}
	return store.SettingPomodoroBreak
}

// SettingsWriter is the store's settings table.
type SettingsWriter interface {
	SetSetting(key, value string) error
}

// ApplySettings writes the explicitly configured settings to the store.
func (c *Config) ApplySettings(w SettingsWriter) error {
	for key, value := range c.Settings {
		if err := w.SetSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
