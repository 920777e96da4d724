package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"

	"github.com/sadopc/litera/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func load(t *testing.T, cfgFile string) (*Config, error) {
	t.Helper()
	v := viper.New()
	if err := SetDefaults(v); err != nil {
		t.Fatal(err)
	}
	if err := Read(v, cfgFile); err != nil {
		t.Fatal(err)
	}
	return Load(v)
}

// ============================================================
// Load
// ============================================================

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	dir, _ := Dir()
	if cfg.DBPath != filepath.Join(dir, "litera.db") {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.Settings) != 0 {
		t.Fatalf("no settings should be configured, got %v", cfg.Settings)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/litera-test/books.db
log:
  level: debug
pomodoro:
  work_minutes: 50
  break_minutes: 10
reminder:
  time: "07:15"
theme: Dark
`)
	cfg, err := load(t, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "/tmp/litera-test/books.db" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	want := map[string]string{
		store.SettingPomodoroWork:  "50",
		store.SettingPomodoroBreak: "10",
		store.SettingReminderTime:  "07:15",
		store.SettingTheme:         "dark",
	}
	if diff := cmp.Diff(want, cfg.Settings); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "pomodoro:\n  work_minutes: 50\n")
	t.Setenv("LITERA_POMODORO_WORK_MINUTES", "30")
	t.Setenv("LITERA_DB_PATH", "$HOME/env.db")

	cfg, err := load(t, path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Settings[store.SettingPomodoroWork]; got != "30" {
		t.Fatalf("work minutes = %q, want 30", got)
	}
	if cfg.DBPath != filepath.Join(os.Getenv("HOME"), "env.db") {
		t.Fatalf("DBPath not expanded: %q", cfg.DBPath)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero work", "pomodoro:\n  work_minutes: 0\n"},
		{"negative break", "pomodoro:\n  break_minutes: -5\n"},
		{"text minutes", "pomodoro:\n  work_minutes: lots\n"},
		{"bad reminder", "reminder:\n  time: \"8pm\"\n"},
		{"bad theme", "theme: neon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, writeConfig(t, tt.body))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestReadMalformedFile(t *testing.T) {
	v := viper.New()
	if err := Read(v, writeConfig(t, "db_path: [unclosed\n")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

// ============================================================
// Settings / paths / logger
// ============================================================

func TestApplySettings(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	cfg := &Config{Settings: map[string]string{store.SettingPomodoroWork: "45"}}
	if err := cfg.ApplySettings(s); err != nil {
		t.Fatal(err)
	}
	if v := s.GetSettingOr(store.SettingPomodoroWork, ""); v != "45" {
		t.Fatalf("pomodoro_work = %q, want 45", v)
	}
	if v := s.GetSettingOr(store.SettingPomodoroBreak, ""); v != "5" {
		t.Fatalf("unconfigured setting changed: %q", v)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("LITERA_TEST_DIR", "/data")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/books.db", filepath.Join(home, "books.db")},
		{"$LITERA_TEST_DIR/books.db", "/data/books.db"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "litera.log")
	cfg := &Config{LogLevel: "debug", LogFile: logFile}

	logger, err := cfg.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	logger.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}
}

func TestNewLoggerBadLevel(t *testing.T) {
	cfg := &Config{LogLevel: "loud", LogFile: filepath.Join(t.TempDir(), "x.log")}
	if _, err := cfg.NewLogger(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
