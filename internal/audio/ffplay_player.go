package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"repeater/internal/ports"
)

// ErrPlaybackReleased is delivered on Done when a session is released
// before playback finished on its own.
var ErrPlaybackReleased = errors.New("playback released")

// FFPlayPlayer prepares files with ffprobe and plays them with ffplay.
type FFPlayPlayer struct {
	command      string
	probeCommand string
}

func NewFFPlayPlayer(command string, probeCommand string) *FFPlayPlayer {
	if command == "" {
		command = "ffplay"
	}
	if probeCommand == "" {
		probeCommand = "ffprobe"
	}
	return &FFPlayPlayer{command: command, probeCommand: probeCommand}
}

// Prepare validates that path holds decodable audio and builds, but does not
// start, the playback process.
func (p *FFPlayPlayer) Prepare(ctx context.Context, path string) (ports.PlaybackSession, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	probe := exec.CommandContext(ctx, p.probeCommand,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stderr bytes.Buffer
	probe.Stderr = &stderr
	out, err := probe.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to probe %q: %w: %s", path, err, stringsTrimSpaceSafe(stderr.String()))
	}

	cmd := exec.Command(p.command, "-nodisp", "-autoexit", "-hide_banner", "-loglevel", "warning", path)
	session := &ffplaySession{
		cmd:      cmd,
		duration: parseProbeDuration(string(out)),
		done:     make(chan error, 1),
		exited:   make(chan struct{}),
	}
	cmd.Stderr = &session.stderr
	return session, nil
}

func parseProbeDuration(output string) time.Duration {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

type ffplaySession struct {
	cmd      *exec.Cmd
	duration time.Duration
	stderr   bytes.Buffer

	mu       sync.Mutex
	started  bool
	released bool

	done   chan error
	exited chan struct{}
}

func (s *ffplaySession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrPlaybackReleased
	}
	if s.started {
		return errors.New("playback already started")
	}
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffplay: %w", err)
	}
	s.started = true

	go func() {
		err := s.cmd.Wait()
		s.mu.Lock()
		released := s.released
		s.mu.Unlock()
		switch {
		case released:
			s.done <- ErrPlaybackReleased
		case err != nil:
			s.done <- fmt.Errorf("ffplay exited: %w: %s", err, stringsTrimSpaceSafe(s.stderr.String()))
		default:
			s.done <- nil
		}
		close(s.exited)
	}()
	return nil
}

func (s *ffplaySession) Done() <-chan error {
	return s.done
}

func (s *ffplaySession) Duration() time.Duration {
	return s.duration
}

// Release stops playback if it is running and waits for the process to exit.
func (s *ffplaySession) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	started := s.started
	s.mu.Unlock()

	if !started {
		s.done <- ErrPlaybackReleased
		return nil
	}

	select {
	case <-s.exited:
		return nil
	default:
	}
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop ffplay: %w", err)
	}
	<-s.exited
	return nil
}
