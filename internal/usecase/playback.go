package usecase

import (
	"context"

	"repeater/internal/domain"
	"repeater/internal/ports"
)

func (c *Controller) play() {
	if c.recorder != nil {
		c.stopRecording()
	}
	if !c.scratchExists() {
		c.setStatus(domain.StatusReasonNothingToPlay, "")
		return
	}

	c.releasePlayback()

	ctx, cancel := context.WithCancel(c.ctx)
	handle := &playbackHandle{cancel: cancel}
	c.playback = handle

	player := c.player
	scratch := c.cfg.ScratchPath
	c.background(func() {
		session, err := player.Prepare(ctx, scratch)
		if err == nil {
			err = session.Start()
		}
		if !c.post(func() { c.playbackStarted(handle, session, err) }) {
			if session != nil {
				_ = session.Release()
			}
			cancel()
		}
	})
}

func (c *Controller) playbackStarted(handle *playbackHandle, session ports.PlaybackSession, err error) {
	if c.playback != handle {
		if session != nil {
			_ = session.Release()
		}
		handle.cancel()
		return
	}

	if err != nil {
		if session != nil {
			_ = session.Release()
		}
		handle.cancel()
		c.playback = nil
		c.logger.Warn("failed to start playback", "error", err)
		c.setStatus(domain.StatusReasonPlayerFailed, err.Error())
		return
	}

	handle.session = session
	c.logger.Debug("playback started", "duration", session.Duration())
	c.setStatus(domain.StatusReasonPlaying, "")

	done := session.Done()
	c.background(func() {
		err := <-done
		c.post(func() { c.playbackFinished(handle, err) })
	})
}

func (c *Controller) playbackFinished(handle *playbackHandle, err error) {
	if c.playback != handle {
		// Released before it finished; nothing to report.
		return
	}
	c.releasePlayback()
	if err != nil {
		c.logger.Warn("playback failed", "error", err)
		c.setStatus(domain.StatusReasonPlayerFailed, err.Error())
		return
	}
	c.setStatus(domain.StatusReasonPlayed, "")
}

func (c *Controller) releasePlayback() {
	handle := c.playback
	if handle == nil {
		return
	}
	c.playback = nil

	if handle.session != nil {
		if err := handle.session.Release(); err != nil {
			c.logger.Debug("ignored playback release error", "error", err)
		}
	}
	handle.cancel()
}
