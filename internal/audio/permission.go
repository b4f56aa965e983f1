package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"repeater/internal/ports"
)

// FFMPEGPermission probes microphone access by capturing a fraction of a
// second to the null muxer. On macOS the first probe triggers the system
// consent prompt, so Request allows a longer wait than Check.
type FFMPEGPermission struct {
	command        string
	cfg            ports.CaptureConfig
	checkTimeout   time.Duration
	requestTimeout time.Duration
}

func NewFFMPEGPermission(command string, cfg ports.CaptureConfig, requestTimeout time.Duration) *FFMPEGPermission {
	if command == "" {
		command = "ffmpeg"
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &FFMPEGPermission{
		command:        command,
		cfg:            cfg,
		checkTimeout:   3 * time.Second,
		requestTimeout: requestTimeout,
	}
}

func (p *FFMPEGPermission) Check(ctx context.Context) (bool, error) {
	return p.probe(ctx, p.checkTimeout)
}

func (p *FFMPEGPermission) Request(ctx context.Context) (bool, error) {
	return p.probe(ctx, p.requestTimeout)
}

func (p *FFMPEGPermission) probe(ctx context.Context, timeout time.Duration) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	format, device := p.cfg.InputFormat, p.cfg.InputDevice
	if format == "" {
		format = "pulse"
	}
	if device == "" {
		device = "default"
	}

	cmd := exec.CommandContext(probeCtx, p.command,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-f", format,
		"-i", device,
		"-t", "0.2",
		"-f", "null",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("microphone probe failed: %w: %s", err, stringsTrimSpaceSafe(stderr.String()))
}
