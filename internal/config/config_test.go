package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("REPEATER_CONFIG", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.RecorderCommand != "ffmpeg" || cfg.Audio.PlayerCommand != "ffplay" || cfg.Audio.ProbeCommand != "ffprobe" {
		t.Fatalf("unexpected commands: %+v", cfg.Audio)
	}
	wantFormat, wantDevice := defaultInput(runtime.GOOS)
	if cfg.Audio.InputFormat != wantFormat || cfg.Audio.InputDevice != wantDevice {
		t.Fatalf("unexpected input: %+v", cfg.Audio)
	}
	if cfg.Storage.ScratchDir != filepath.Join(home, "cache", "repeater") {
		t.Fatalf("unexpected scratch dir: %q", cfg.Storage.ScratchDir)
	}
	if cfg.Storage.LibraryRoot != home {
		t.Fatalf("unexpected library root: %q", cfg.Storage.LibraryRoot)
	}
	if cfg.Storage.IndexDir != filepath.Join(home, "config", "repeater", "media-index") {
		t.Fatalf("unexpected index dir: %q", cfg.Storage.IndexDir)
	}
	if cfg.Session.CopyChunkSize != defaultChunkSize || cfg.Session.StopGrace != defaultStopGrace {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
}

func TestLoadRespectsEnvOverrides(t *testing.T) {
	home := isolate(t)
	t.Setenv("REPEATER_FFMPEG_COMMAND", "my-ffmpeg")
	t.Setenv("REPEATER_FFPLAY_COMMAND", "my-ffplay")
	t.Setenv("REPEATER_FFPROBE_COMMAND", "my-ffprobe")
	t.Setenv("REPEATER_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("REPEATER_AUDIO_INPUT_DEVICE", "hw:1")
	t.Setenv("REPEATER_SCRATCH_DIR", filepath.Join(home, "scratch"))
	t.Setenv("REPEATER_LIBRARY_ROOT", filepath.Join(home, "shared"))
	t.Setenv("REPEATER_INDEX_DIR", filepath.Join(home, "idx"))
	t.Setenv("REPEATER_COPY_CHUNK_SIZE", "4096")
	t.Setenv("REPEATER_STOP_GRACE_MS", "250")
	t.Setenv("REPEATER_PERMISSION_TIMEOUT_MS", "1500")
	t.Setenv("REPEATER_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.RecorderCommand != "my-ffmpeg" || cfg.Audio.PlayerCommand != "my-ffplay" || cfg.Audio.ProbeCommand != "my-ffprobe" {
		t.Fatalf("unexpected commands: %+v", cfg.Audio)
	}
	if cfg.Audio.InputFormat != "alsa" || cfg.Audio.InputDevice != "hw:1" {
		t.Fatalf("unexpected input: %+v", cfg.Audio)
	}
	if cfg.Storage.ScratchDir != filepath.Join(home, "scratch") || cfg.Storage.LibraryRoot != filepath.Join(home, "shared") || cfg.Storage.IndexDir != filepath.Join(home, "idx") {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Session.CopyChunkSize != 4096 || cfg.Session.StopGrace != 250*time.Millisecond || cfg.Session.PermissionTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.Log.Level)
	}
}

func TestLoadReadsConfigFileAndEnvWins(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config", "repeater", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	contents := "audio:\n  recorder_command: file-ffmpeg\n  input_device: file-mic\nsession:\n  stop_grace: 2s\nlog:\n  level: warn\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("REPEATER_AUDIO_INPUT_DEVICE", "env-mic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Audio.RecorderCommand != "file-ffmpeg" {
		t.Fatalf("expected file value, got %q", cfg.Audio.RecorderCommand)
	}
	if cfg.Audio.InputDevice != "env-mic" {
		t.Fatalf("expected env override, got %q", cfg.Audio.InputDevice)
	}
	if cfg.Session.StopGrace != 2*time.Second {
		t.Fatalf("expected file stop grace, got %s", cfg.Session.StopGrace)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected file log level, got %q", cfg.Log.Level)
	}
}

func TestLoadFailsOnMissingExplicitConfig(t *testing.T) {
	home := isolate(t)
	t.Setenv("REPEATER_CONFIG", filepath.Join(home, "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoadFailsOnMalformedConfig(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "bad.yaml")
	if err := os.WriteFile(path, []byte("audio: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("REPEATER_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadInvalidNumericValuesFallback(t *testing.T) {
	isolate(t)
	t.Setenv("REPEATER_COPY_CHUNK_SIZE", "5")
	t.Setenv("REPEATER_STOP_GRACE_MS", "bad")
	t.Setenv("REPEATER_PERMISSION_TIMEOUT_MS", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Session.CopyChunkSize != defaultChunkSize {
		t.Fatalf("expected chunk size fallback, got %d", cfg.Session.CopyChunkSize)
	}
	if cfg.Session.StopGrace != defaultStopGrace {
		t.Fatalf("expected default stop grace, got %s", cfg.Session.StopGrace)
	}
	if cfg.Session.PermissionTimeout != defaultPermissionTimeout {
		t.Fatalf("expected default permission timeout, got %s", cfg.Session.PermissionTimeout)
	}
}

func TestDefaultInputPerPlatform(t *testing.T) {
	cases := map[string][2]string{
		"linux":   {"pulse", "default"},
		"darwin":  {"avfoundation", ":0"},
		"windows": {"dshow", ""},
	}
	for goos, want := range cases {
		format, device := defaultInput(goos)
		if format != want[0] || device != want[1] {
			t.Fatalf("defaultInput(%q)=%q,%q want %q,%q", goos, format, device, want[0], want[1])
		}
	}
}

func TestLoadRequiresDeviceForDShow(t *testing.T) {
	isolate(t)
	t.Setenv("REPEATER_AUDIO_INPUT_FORMAT", "dshow")
	t.Setenv("REPEATER_AUDIO_INPUT_DEVICE", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "REPEATER_AUDIO_INPUT_DEVICE") {
		t.Fatalf("expected missing device error, got %v", err)
	}

	t.Setenv("REPEATER_AUDIO_INPUT_DEVICE", "audio=Microphone Array")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Audio.InputDevice != "audio=Microphone Array" {
		t.Fatalf("unexpected device: %q", cfg.Audio.InputDevice)
	}
}
