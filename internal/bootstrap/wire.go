package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"repeater/internal/audio"
	"repeater/internal/config"
	"repeater/internal/medialib"
	"repeater/internal/ports"
	"repeater/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.Controller
	Library    *medialib.Library
	Config     config.Config
	Logger     *slog.Logger
}

// Close destroys the controller and closes the media index.
func (s Services) Close() error {
	if s.Controller != nil {
		s.Controller.Destroy()
	}
	if s.Library != nil {
		return s.Library.Close()
	}
	return nil
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	logger := NewLogger(os.Stderr, cfg.Log.Level)

	library, err := OpenLibrary(cfg, logger)
	if err != nil {
		return Services{}, err
	}

	captureCfg := usecase.CaptureConfig(cfg.Audio.InputFormat, cfg.Audio.InputDevice)
	controller := usecase.NewController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand, cfg.Session.StopGrace),
		audio.NewFFPlayPlayer(cfg.Audio.PlayerCommand, cfg.Audio.ProbeCommand),
		audio.NewFFMPEGPermission(cfg.Audio.RecorderCommand, captureCfg, cfg.Session.PermissionTimeout),
		library,
		eventSink,
		logger,
		usecase.Config{
			Capture:       captureCfg,
			ScratchPath:   filepath.Join(cfg.Storage.ScratchDir, usecase.ScratchFileName),
			CopyChunkSize: cfg.Session.CopyChunkSize,
		},
	)

	logger.Debug("services ready",
		"scratch_dir", cfg.Storage.ScratchDir,
		"library_root", cfg.Storage.LibraryRoot,
		"input", cfg.Audio.InputFormat+":"+cfg.Audio.InputDevice,
	)
	return Services{Controller: controller, Library: library, Config: cfg, Logger: logger}, nil
}

// OpenLibrary opens the on-disk media index and the shared collection rooted
// at cfg.Storage.LibraryRoot.
func OpenLibrary(cfg config.Config, logger *slog.Logger) (*medialib.Library, error) {
	if cfg.Storage.LibraryRoot == "" {
		return nil, errors.New("library root is not configured")
	}
	index, err := medialib.OpenIndex(medialib.IndexOptions{Dir: cfg.Storage.IndexDir, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to open media index: %w", err)
	}
	return medialib.New(cfg.Storage.LibraryRoot, index), nil
}

// NewLogger returns a text logger writing to w at the named level.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
