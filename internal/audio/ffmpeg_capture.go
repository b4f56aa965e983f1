package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"repeater/internal/ports"
)

// startupWindow is how long a freshly spawned ffmpeg must stay alive
// before the capture counts as started.
const startupWindow = 250 * time.Millisecond

// FFMPEGCapture records the microphone into an audio file using ffmpeg.
type FFMPEGCapture struct {
	command   string
	stopGrace time.Duration
}

func NewFFMPEGCapture(command string, stopGrace time.Duration) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	if stopGrace <= 0 {
		stopGrace = 3 * time.Second
	}
	return &FFMPEGCapture{command: command, stopGrace: stopGrace}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.CaptureConfig, outputPath string) (ports.CaptureSession, error) {
	if outputPath == "" {
		return nil, errors.New("capture output path is empty")
	}

	cmd := exec.CommandContext(ctx, c.command, captureArgs(cfg, outputPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, stringsTrimSpaceSafe(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(startupWindow):
	}

	return &ffmpegSession{
		stderr:    &stderr,
		stdin:     stdin,
		process:   cmd.Process,
		waitErr:   waitErr,
		stopGrace: c.stopGrace,
	}, nil
}

func captureArgs(cfg ports.CaptureConfig, outputPath string) []string {
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.BitRate <= 0 {
		cfg.BitRate = 128000
	}
	if cfg.Codec == "" {
		cfg.Codec = "aac"
	}
	if cfg.Container == "" {
		cfg.Container = "mp4"
	}

	// stdin stays open: ffmpeg finalizes the container when it reads "q".
	return []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-y",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", cfg.Codec,
		"-b:a", strconv.Itoa(cfg.BitRate),
		"-f", cfg.Container,
		outputPath,
	}
}

type ffmpegSession struct {
	stderr *bytes.Buffer
	stdin  io.WriteCloser

	process   *os.Process
	waitErr   <-chan error
	stopGrace time.Duration

	stopOnce sync.Once
	stopErr  error
}

// Stop asks ffmpeg to quit through its stdin so it writes the MP4 trailer.
// Where that is not honored within the grace period it is interrupted, and
// killed after a second grace period. os.Interrupt is unsupported on
// Windows, so there the stdin command is the only graceful path.
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		// A failed write usually means ffmpeg already exited; the wait
		// below then returns at once.
		s.requestQuit()

		exited, err := s.wait()
		if !exited && s.process != nil {
			if signalErr := s.process.Signal(os.Interrupt); signalErr == nil {
				exited, err = s.wait()
			}
		}
		if !exited {
			killed := s.process != nil && s.process.Kill() == nil
			err = <-s.waitErr
			s.stopErr = normalizeStopErr(err)
			if s.stopErr == nil && killed {
				s.stopErr = errors.New("ffmpeg did not stop within grace period")
			}
		} else {
			s.stopErr = normalizeStopErr(err)
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, stringsTrimSpaceSafe(s.stderr.String()))
		}
	})

	return s.stopErr
}

// requestQuit sends ffmpeg's interactive quit command and closes stdin.
func (s *ffmpegSession) requestQuit() {
	if s.stdin == nil {
		return
	}
	_, _ = io.WriteString(s.stdin, "q\n")
	_ = s.stdin.Close()
}

// wait reports whether ffmpeg exited within stopGrace.
func (s *ffmpegSession) wait() (bool, error) {
	select {
	case err := <-s.waitErr:
		return true, err
	case <-time.After(s.stopGrace):
		return false, nil
	}
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func stringsTrimSpaceSafe(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
