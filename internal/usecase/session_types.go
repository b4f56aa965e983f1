package usecase

import (
	"context"

	"repeater/internal/ports"
)

// captureHandle exists from the moment a recording is requested. session is
// nil while the pipeline is still starting in the background.
type captureHandle struct {
	cancel  context.CancelFunc
	session ports.CaptureSession
}

func (h *captureHandle) active() bool {
	return h != nil && h.session != nil
}

// playbackHandle exists from the moment playback is requested. session is
// nil while the pipeline is being prepared.
type playbackHandle struct {
	cancel  context.CancelFunc
	session ports.PlaybackSession
}

func (h *playbackHandle) active() bool {
	return h != nil && h.session != nil
}
