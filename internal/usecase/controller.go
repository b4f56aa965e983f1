package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"repeater/internal/domain"
	"repeater/internal/ports"
)

var ErrControllerClosed = errors.New("controller is closed")

// Config controls where the scratch recording lives and how it is captured.
type Config struct {
	Capture       ports.CaptureConfig
	ScratchPath   string
	CopyChunkSize int
}

// CaptureConfig returns the fixed capture format: AAC in MPEG-4, 128 kbps,
// 44.1 kHz mono, from the given input.
func CaptureConfig(inputFormat string, inputDevice string) ports.CaptureConfig {
	return ports.CaptureConfig{
		InputFormat: inputFormat,
		InputDevice: inputDevice,
		Container:   "mp4",
		Codec:       "aac",
		BitRate:     128000,
		SampleRate:  44100,
		Channels:    1,
	}
}

// Controller owns the single recording session and the single playback
// session and reacts to record, play, save and destroy intents.
//
// All handle and status mutation happens on one loop goroutine. Blocking
// pipeline calls run on background goroutines which post their results back
// to the loop.
type Controller struct {
	capture    ports.AudioCapture
	player     ports.AudioPlayer
	permission ports.MicrophonePermission
	saver      recordingSaver
	events     ports.EventSink
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time

	ctx         context.Context
	cancel      context.CancelFunc
	tasks       chan func()
	quit        chan struct{}
	loopDone    chan struct{}
	work        sync.WaitGroup
	saves       sync.WaitGroup
	destroyOnce sync.Once
	snapshot    atomic.Pointer[domain.Status]

	// Loop-owned.
	recorder  *captureHandle
	playback  *playbackHandle
	permState domain.PermissionState
	status    domain.Status
	closing   bool
}

func NewController(
	capture ports.AudioCapture,
	player ports.AudioPlayer,
	permission ports.MicrophonePermission,
	library ports.MediaLibrary,
	events ports.EventSink,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ScratchPath == "" {
		cfg.ScratchPath = filepath.Join(os.TempDir(), ScratchFileName)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		capture:    capture,
		player:     player,
		permission: permission,
		saver:      newRecordingSaver(library, cfg.CopyChunkSize, logger),
		events:     events,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		tasks:      make(chan func()),
		quit:       make(chan struct{}),
		loopDone:   make(chan struct{}),
		permState:  domain.PermissionUnknown,
		status: domain.Status{
			State:  domain.SessionStateIdle,
			Reason: domain.StatusReasonReady,
		},
	}
	c.status.Message = StatusMessage(domain.StatusReasonReady, "")
	c.status.Permission = c.permState
	snapshot := c.status
	c.snapshot.Store(&snapshot)

	// A scratch file left by a previous run is not "the last recording".
	c.removeScratch()

	go c.run()
	return c
}

// EnsurePermission checks microphone permission once and requests it once if
// it is not granted. Later calls are no-ops.
func (c *Controller) EnsurePermission() error {
	return c.call(c.ensurePermission)
}

// ToggleRecord starts a recording when idle and stops the current one otherwise.
func (c *Controller) ToggleRecord() error {
	return c.call(c.toggleRecord)
}

// Play stops any recording and plays the scratch file.
func (c *Controller) Play() error {
	return c.call(c.play)
}

// Save stops any recording and copies the scratch file into the shared collection.
func (c *Controller) Save() error {
	return c.call(c.save)
}

// Status returns the latest status snapshot.
func (c *Controller) Status() domain.Status {
	return *c.snapshot.Load()
}

// Destroy stops and releases both pipelines, deletes the scratch file and
// waits for background work to drain. A save that is already copying runs to
// completion and reports its status first. It is safe to call more than once.
func (c *Controller) Destroy() {
	c.destroyOnce.Do(func() {
		_ = c.call(c.teardown)
		c.saves.Wait()
		close(c.quit)
		<-c.loopDone
		c.cancel()
		c.work.Wait()
	})
}

func (c *Controller) run() {
	defer close(c.loopDone)
	for {
		select {
		case task := <-c.tasks:
			task()
		case <-c.quit:
			return
		}
	}
}

// post hands task to the loop. It reports false once the loop has exited,
// in which case task never runs.
func (c *Controller) post(task func()) bool {
	select {
	case c.tasks <- task:
		return true
	case <-c.loopDone:
		return false
	}
}

// call runs task on the loop and waits for it. Once teardown has run, task
// is skipped and ErrControllerClosed returned. Must not be used from the loop.
func (c *Controller) call(task func()) error {
	done := make(chan error, 1)
	if !c.post(func() {
		if c.closing {
			done <- ErrControllerClosed
			return
		}
		task()
		done <- nil
	}) {
		return ErrControllerClosed
	}
	return <-done
}

func (c *Controller) background(fn func()) {
	c.work.Add(1)
	go func() {
		defer c.work.Done()
		fn()
	}()
}

func (c *Controller) ensurePermission() {
	if c.permState != domain.PermissionUnknown {
		return
	}
	c.permState = domain.PermissionChecking
	c.publish()

	c.background(func() {
		granted, err := c.permission.Check(c.ctx)
		if err != nil {
			c.logger.Warn("microphone permission check failed", "error", err)
		}
		if !granted {
			granted, err = c.permission.Request(c.ctx)
			if err != nil {
				c.logger.Warn("microphone permission request failed", "error", err)
			}
		}
		c.post(func() { c.permissionResolved(granted) })
	})
}

func (c *Controller) permissionResolved(granted bool) {
	if granted {
		c.permState = domain.PermissionGranted
		c.publish()
		return
	}
	c.permState = domain.PermissionDenied
	c.setStatus(domain.StatusReasonPermissionDenied, "")
}

func (c *Controller) save() {
	if c.recorder != nil {
		c.stopRecording()
	}
	if !c.scratchExists() {
		c.setStatus(domain.StatusReasonNothingToSave, "")
		return
	}

	entry, err := c.saver.Insert(c.ctx, DisplayName(c.now()))
	if err != nil {
		c.logger.Warn("failed to create shared media entry", "error", err)
		c.setStatus(domain.StatusReasonSaveFailed, "")
		return
	}

	// Destroy waits on saves before it cancels c.ctx.
	scratch := c.cfg.ScratchPath
	c.saves.Add(1)
	c.background(func() {
		defer c.saves.Done()
		result, err := c.saver.Copy(c.ctx, scratch, entry)
		c.post(func() { c.saveFinished(result, err) })
	})
}

func (c *Controller) saveFinished(result domain.SaveResult, err error) {
	if err != nil {
		c.logger.Warn("failed to save recording", "error", err)
		c.setStatus(domain.StatusReasonSaveError, err.Error())
		return
	}
	c.logger.Info("recording saved", "id", result.Entry.ID, "path", result.Entry.Path, "bytes", result.Bytes)
	c.setStatus(domain.StatusReasonSaved, path.Join(result.Entry.RelativePath, result.Entry.DisplayName))
}

func (c *Controller) teardown() {
	c.closing = true
	c.releaseRecorder()
	c.releasePlayback()
	c.removeScratch()
	c.publish()
}

func (c *Controller) scratchExists() bool {
	_, err := os.Stat(c.cfg.ScratchPath)
	return err == nil
}

func (c *Controller) removeScratch() {
	if err := os.Remove(c.cfg.ScratchPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("failed to delete scratch recording", "path", c.cfg.ScratchPath, "error", err)
	}
}

func (c *Controller) setStatus(reason domain.StatusReason, detail string) {
	c.status.Reason = reason
	c.status.Message = StatusMessage(reason, detail)
	c.publish()
}

// publish refreshes the derived status fields and emits the status.
func (c *Controller) publish() {
	c.status.Recording = c.recorder.active()
	c.status.Playing = c.playback.active()
	c.status.Permission = c.permState
	switch {
	case c.status.Recording:
		c.status.State = domain.SessionStateRecording
	case c.status.Playing:
		c.status.State = domain.SessionStatePlaying
	default:
		c.status.State = domain.SessionStateIdle
	}

	snapshot := c.status
	c.snapshot.Store(&snapshot)
	if c.events != nil {
		c.events.StatusChanged(snapshot)
	}
}
