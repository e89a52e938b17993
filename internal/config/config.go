package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	MusicDir string   `koanf:"music_dir"` // root of the primary volume
	Folders  []string `koanf:"folders"`   // scope folders, e.g. "primary:Music/Rock"

	Session SessionConfig `koanf:"session"`
}

// SessionConfig tunes the playback session timers. Zero values fall back to
// the session package defaults.
type SessionConfig struct {
	SampleIntervalMs int `koanf:"sample_interval_ms"`
	SaveThresholdMs  int `koanf:"save_threshold_ms"`
	SaveDebounceMs   int `koanf:"save_debounce_ms"`
	RestoreSettleMs  int `koanf:"restore_settle_ms"`
}

// SampleInterval returns the configured sampler interval, 0 for default.
func (s SessionConfig) SampleInterval() time.Duration {
	return time.Duration(s.SampleIntervalMs) * time.Millisecond
}

// SaveThreshold returns the configured save threshold, 0 for default.
func (s SessionConfig) SaveThreshold() time.Duration {
	return time.Duration(s.SaveThresholdMs) * time.Millisecond
}

// SaveDebounce returns the configured debounce window, 0 for default.
func (s SessionConfig) SaveDebounce() time.Duration {
	return time.Duration(s.SaveDebounceMs) * time.Millisecond
}

// RestoreSettle returns the configured restore settle delay, 0 for default.
func (s SessionConfig) RestoreSettle() time.Duration {
	return time.Duration(s.RestoreSettleMs) * time.Millisecond
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.MusicDir == "" {
		cfg.MusicDir = xdg.UserDirs.Music
	}
	cfg.MusicDir = expandPath(cfg.MusicDir)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/cadence/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cadence", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
