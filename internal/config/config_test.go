package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(dir)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.toml anywhere nearby

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Folders) != 0 {
		t.Errorf("Folders = %v, want empty", cfg.Folders)
	}
	if cfg.Session.SampleInterval() != 0 {
		t.Errorf("SampleInterval = %v, want 0 (package default)", cfg.Session.SampleInterval())
	}
}

func TestLoad_FromFile(t *testing.T) {
	writeConfig(t, `
music_dir = "/srv/music"
folders = ["primary:Music/Rock", "primary:Music/Jazz"]

[session]
sample_interval_ms = 250
save_threshold_ms = 3000
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MusicDir != "/srv/music" {
		t.Errorf("MusicDir = %q, want /srv/music", cfg.MusicDir)
	}
	if len(cfg.Folders) != 2 || cfg.Folders[0] != "primary:Music/Rock" {
		t.Errorf("Folders = %v", cfg.Folders)
	}
	if cfg.Session.SampleInterval() != 250*time.Millisecond {
		t.Errorf("SampleInterval = %v, want 250ms", cfg.Session.SampleInterval())
	}
	if cfg.Session.SaveThreshold() != 3*time.Second {
		t.Errorf("SaveThreshold = %v, want 3s", cfg.Session.SaveThreshold())
	}
	if cfg.Session.SaveDebounce() != 0 {
		t.Errorf("SaveDebounce = %v, want 0 (unset)", cfg.Session.SaveDebounce())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}

	if got := expandPath("~/Music"); got != filepath.Join(home, "Music") {
		t.Errorf("expandPath(~/Music) = %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expandPath(/abs/path) = %q", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %q", got)
	}
}
