package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration for the recorder.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command"`
	PlayerCommand   string `yaml:"player_command"`
	ProbeCommand    string `yaml:"probe_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
}

type StorageConfig struct {
	ScratchDir  string `yaml:"scratch_dir"`
	LibraryRoot string `yaml:"library_root"`
	IndexDir    string `yaml:"index_dir"`
}

type SessionConfig struct {
	CopyChunkSize     int           `yaml:"copy_chunk_size"`
	StopGrace         time.Duration `yaml:"stop_grace"`
	PermissionTimeout time.Duration `yaml:"permission_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	defaultChunkSize         = 32 * 1024
	defaultStopGrace         = 3 * time.Second
	defaultPermissionTimeout = 10 * time.Second
)

// Load resolves configuration from an optional YAML file, environment
// variables and defaults, in increasing order of precedence for the latter two.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	var cfg Config
	path := configPath(home)
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	inputFormat, _ := defaultInput(runtime.GOOS)
	cacheDir := userCacheDir(home)
	dataDir := filepath.Join(userConfigDir(home), "repeater")

	cfg.Audio.RecorderCommand = envOrDefault("REPEATER_FFMPEG_COMMAND", firstNonEmpty(cfg.Audio.RecorderCommand, "ffmpeg"))
	cfg.Audio.PlayerCommand = envOrDefault("REPEATER_FFPLAY_COMMAND", firstNonEmpty(cfg.Audio.PlayerCommand, "ffplay"))
	cfg.Audio.ProbeCommand = envOrDefault("REPEATER_FFPROBE_COMMAND", firstNonEmpty(cfg.Audio.ProbeCommand, "ffprobe"))
	cfg.Audio.InputFormat = envOrDefault("REPEATER_AUDIO_INPUT_FORMAT", firstNonEmpty(cfg.Audio.InputFormat, inputFormat))
	cfg.Audio.InputDevice = envOrDefault("REPEATER_AUDIO_INPUT_DEVICE", firstNonEmpty(cfg.Audio.InputDevice, defaultDevice(cfg.Audio.InputFormat)))
	if cfg.Audio.InputDevice == "" {
		return Config{}, fmt.Errorf("input format %q has no default device; set REPEATER_AUDIO_INPUT_DEVICE (dshow names look like \"audio=Microphone Array\", see ffmpeg -list_devices true -f dshow -i dummy)", cfg.Audio.InputFormat)
	}

	cfg.Storage.ScratchDir = envOrDefault("REPEATER_SCRATCH_DIR", firstNonEmpty(cfg.Storage.ScratchDir, filepath.Join(cacheDir, "repeater")))
	cfg.Storage.LibraryRoot = envOrDefault("REPEATER_LIBRARY_ROOT", firstNonEmpty(cfg.Storage.LibraryRoot, home))
	cfg.Storage.IndexDir = envOrDefault("REPEATER_INDEX_DIR", firstNonEmpty(cfg.Storage.IndexDir, filepath.Join(dataDir, "media-index")))

	cfg.Session.CopyChunkSize = envOrDefaultInt("REPEATER_COPY_CHUNK_SIZE", cfg.Session.CopyChunkSize)
	cfg.Session.StopGrace = envOrDefaultDuration("REPEATER_STOP_GRACE_MS", cfg.Session.StopGrace)
	cfg.Session.PermissionTimeout = envOrDefaultDuration("REPEATER_PERMISSION_TIMEOUT_MS", cfg.Session.PermissionTimeout)

	cfg.Log.Level = strings.ToLower(envOrDefault("REPEATER_LOG_LEVEL", firstNonEmpty(cfg.Log.Level, "info")))

	if cfg.Session.CopyChunkSize < 512 {
		cfg.Session.CopyChunkSize = defaultChunkSize
	}
	if cfg.Session.StopGrace <= 0 {
		cfg.Session.StopGrace = defaultStopGrace
	}
	if cfg.Session.PermissionTimeout <= 0 {
		cfg.Session.PermissionTimeout = defaultPermissionTimeout
	}

	return cfg, nil
}

// configPath returns the file to read, or "" when there is none.
// An explicit REPEATER_CONFIG must exist; the default location is optional.
func configPath(home string) string {
	if explicit := strings.TrimSpace(os.Getenv("REPEATER_CONFIG")); explicit != "" {
		return explicit
	}
	candidate := filepath.Join(userConfigDir(home), "repeater", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return nil
}

func defaultInput(goos string) (format string, device string) {
	switch goos {
	case "darwin":
		format = "avfoundation"
	case "windows":
		format = "dshow"
	default:
		format = "pulse"
	}
	return format, defaultDevice(format)
}

// defaultDevice names the system default input for formats that have one.
// dshow has no such alias, so its device must be configured.
func defaultDevice(format string) string {
	switch format {
	case "avfoundation":
		return ":0"
	case "pulse", "alsa":
		return "default"
	default:
		return ""
	}
}

// userCacheDir follows os.UserCacheDir but stays under home when the
// platform lookup fails or HOME was overridden.
func userCacheDir(home string) string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CACHE_HOME")); xdg != "" {
		return xdg
	}
	if runtime.GOOS == "linux" {
		return filepath.Join(home, ".cache")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return filepath.Join(home, ".cache")
}

func userConfigDir(home string) string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return xdg
	}
	if runtime.GOOS == "linux" {
		return filepath.Join(home, ".config")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(home, ".config")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}
