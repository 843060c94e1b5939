// Package config loads docksort settings from a config file and the
// environment.
//
// Settings are read once at startup into an immutable Config value that is
// handed to every component at construction. The config file may be TOML,
// YAML or JSON; its default location is $XDG_CONFIG_HOME/docksort/config.toml.
// Every key can be overridden with a DOCKSORT_ prefixed environment variable,
// e.g. DOCKSORT_ORGANIZED_PATH.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the resolved settings. Paths are absolute.
type Config struct {
	DockingStationPath       string   `mapstructure:"docking_station_path"`
	OrganizedPath            string   `mapstructure:"organized_path"`
	StabilityWaitTimeSeconds int      `mapstructure:"stability_wait_time_seconds"`
	ScanIntervalSeconds      int      `mapstructure:"scan_interval_seconds"`
	Ignore                   []string `mapstructure:"ignore"`
	TransientSuffixes        []string `mapstructure:"transient_suffixes"`
	CrossDeviceCopy          bool     `mapstructure:"cross_device_copy"`
	StateDir                 string   `mapstructure:"state_dir"`

	// DuplicateRetentionDays is accepted for compatibility with existing
	// config files. Nothing prunes the duplicates folder.
	DuplicateRetentionDays int `mapstructure:"duplicate_retention_days"`

	Log LogConfig `mapstructure:"log"`

	// File is the config file that was read, empty when only defaults and
	// environment were used.
	File string `mapstructure:"-"`
}

// LogConfig controls the zerolog outputs.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const envPrefix = "DOCKSORT"

// DefaultTransientSuffixes are the partial-download markers skipped in the
// docking station.
var DefaultTransientSuffixes = []string{".crdownload", ".part", ".tmp", ".download"}

// Dir returns the docksort config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/docksort if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "docksort"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("docking_station_path", "~/DockingStation")
	v.SetDefault("organized_path", "~/DockingStation/Organized")
	v.SetDefault("stability_wait_time_seconds", 5)
	v.SetDefault("duplicate_retention_days", 30)
	v.SetDefault("scan_interval_seconds", 10)
	v.SetDefault("ignore", []string{})
	v.SetDefault("transient_suffixes", DefaultTransientSuffixes)
	v.SetDefault("cross_device_copy", false)
	v.SetDefault("state_dir", "~/.docksort")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load reads configuration from path. When path is empty the default config
// directory is searched for a file named "config" with any supported
// extension; a missing default file is not an error. An explicit path that
// cannot be read is.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve config dir: %w", err)
		}
		v.SetConfigName("config")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	var err error
	if c.DockingStationPath, err = absPath(c.DockingStationPath); err != nil {
		return fmt.Errorf("docking_station_path: %w", err)
	}
	if c.OrganizedPath, err = absPath(c.OrganizedPath); err != nil {
		return fmt.Errorf("organized_path: %w", err)
	}
	if c.StateDir, err = absPath(c.StateDir); err != nil {
		return fmt.Errorf("state_dir: %w", err)
	}
	if c.Log.File != "" {
		if c.Log.File, err = absPath(c.Log.File); err != nil {
			return fmt.Errorf("log.file: %w", err)
		}
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Ignore = trimList(c.Ignore)
	c.TransientSuffixes = trimList(c.TransientSuffixes)
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.DockingStationPath == "":
		return errors.New("docking_station_path is required")
	case c.OrganizedPath == "":
		return errors.New("organized_path is required")
	case c.OrganizedPath == string(filepath.Separator):
		return errors.New("organized_path must not be the filesystem root")
	case c.DockingStationPath == c.OrganizedPath:
		return errors.New("docking_station_path and organized_path must differ")
	case c.StabilityWaitTimeSeconds < 0:
		return fmt.Errorf("stability_wait_time_seconds must be >= 0, got %d", c.StabilityWaitTimeSeconds)
	case c.ScanIntervalSeconds <= 0:
		return fmt.Errorf("scan_interval_seconds must be > 0, got %d", c.ScanIntervalSeconds)
	case c.DuplicateRetentionDays < 0:
		return fmt.Errorf("duplicate_retention_days must be >= 0, got %d", c.DuplicateRetentionDays)
	case c.StateDir == "":
		return errors.New("state_dir is required")
	}
	return nil
}

// StabilityWait is the interval between the two size probes of a file.
func (c Config) StabilityWait() time.Duration {
	return time.Duration(c.StabilityWaitTimeSeconds) * time.Second
}

// ScanInterval is the pause between two scheduled passes.
func (c Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// DatabasePath is the move journal location inside the state directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.StateDir, "docksort.db")
}

// LockPath is the single-instance lock file.
func (c Config) LockPath() string {
	return filepath.Join(c.StateDir, "docksort.lock")
}

// PIDPath is the default daemon PID file.
func (c Config) PIDPath() string {
	return filepath.Join(c.StateDir, "watch.pid")
}

// DaemonLogPath is the default daemon log file.
func (c Config) DaemonLogPath() string {
	return filepath.Join(c.StateDir, "watch.log")
}

// EnsureDirs creates the docking station, organized root and state
// directory if they are missing. It returns the directories it created.
func EnsureDirs(c Config) ([]string, error) {
	var created []string
	for _, dir := range []string{c.DockingStationPath, c.OrganizedPath, c.StateDir} {
		if _, err := os.Stat(dir); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, fmt.Errorf("stat %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

func absPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
