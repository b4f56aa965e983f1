package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"repeater/internal/domain"
	"repeater/internal/ports"
)

func (c *Controller) toggleRecord() {
	if c.recorder != nil {
		c.stopRecording()
		return
	}

	switch c.permState {
	case domain.PermissionGranted:
	case domain.PermissionDenied:
		c.setStatus(domain.StatusReasonPermissionDenied, "")
		return
	default:
		c.setStatus(domain.StatusReasonPermissionPending, "")
		return
	}

	c.startRecording()
}

func (c *Controller) startRecording() {
	c.releasePlayback()
	c.removeScratch()

	if err := os.MkdirAll(filepath.Dir(c.cfg.ScratchPath), 0o755); err != nil {
		c.setStatus(domain.StatusReasonRecorderFailed, fmt.Sprintf("failed to create scratch dir: %v", err))
		return
	}

	// The capture process lives as long as ctx, so it is only canceled when
	// the recording is released.
	ctx, cancel := context.WithCancel(c.ctx)
	handle := &captureHandle{cancel: cancel}
	c.recorder = handle

	capture := c.capture
	captureCfg := c.cfg.Capture
	scratch := c.cfg.ScratchPath
	c.background(func() {
		session, err := capture.Start(ctx, captureCfg, scratch)
		if !c.post(func() { c.captureStarted(handle, session, err) }) {
			if session != nil {
				_ = session.Stop()
			}
			cancel()
		}
	})
}

func (c *Controller) captureStarted(handle *captureHandle, session ports.CaptureSession, err error) {
	if c.recorder != handle {
		// Stopped or torn down while starting.
		if session != nil {
			if stopErr := session.Stop(); stopErr != nil {
				c.logger.Debug("ignored stop error for abandoned capture", "error", stopErr)
			}
		}
		handle.cancel()
		// Whatever the abandoned capture wrote has no trailer. A newer
		// recording owns the scratch file if one has started since.
		if c.recorder == nil {
			c.removeScratch()
		}
		return
	}

	if err != nil {
		handle.cancel()
		c.recorder = nil
		c.logger.Warn("failed to start capture", "error", err)
		c.setStatus(domain.StatusReasonRecorderFailed, err.Error())
		return
	}

	handle.session = session
	c.setStatus(domain.StatusReasonRecordingStarted, "")
}

func (c *Controller) stopRecording() {
	c.releaseRecorder()
	c.setStatus(domain.StatusReasonRecordingStopped, "")
}

// releaseRecorder stops and releases the capture pipeline. Stop errors are
// not fatal: whatever was captured is kept. A capture released while still
// starting is killed, so its partial scratch file is removed.
func (c *Controller) releaseRecorder() {
	handle := c.recorder
	if handle == nil {
		return
	}
	c.recorder = nil

	if handle.session == nil {
		handle.cancel()
		c.removeScratch()
		return
	}
	if err := handle.session.Stop(); err != nil {
		c.logger.Debug("ignored capture stop error", "error", err)
	}
	handle.cancel()
}
