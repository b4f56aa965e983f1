package ports

import (
	"context"
	"io"
	"time"

	"repeater/internal/domain"
)

// CaptureConfig describes how the microphone is captured and encoded.
type CaptureConfig struct {
	InputFormat string
	InputDevice string
	Container   string
	Codec       string
	BitRate     int
	SampleRate  int
	Channels    int
}

// CaptureSession is a running capture pipeline writing to a file.
type CaptureSession interface {
	// Stop finalizes the output file and releases the pipeline.
	Stop() error
}

// AudioCapture starts capture pipelines.
type AudioCapture interface {
	Start(ctx context.Context, cfg CaptureConfig, outputPath string) (CaptureSession, error)
}

// PlaybackSession is a prepared playback pipeline.
type PlaybackSession interface {
	Start() error
	// Done delivers exactly one value once playback ends or the session is
	// released: nil on natural completion, an error otherwise.
	Done() <-chan error
	Duration() time.Duration
	Release() error
}

// AudioPlayer prepares playback pipelines for a file.
type AudioPlayer interface {
	Prepare(ctx context.Context, path string) (PlaybackSession, error)
}

// MicrophonePermission is the host permission surface for audio capture.
type MicrophonePermission interface {
	Check(ctx context.Context) (bool, error)
	Request(ctx context.Context) (bool, error)
}

// MediaLibrary is a shared, cross-application media collection.
type MediaLibrary interface {
	Insert(ctx context.Context, values domain.MediaValues) (domain.MediaEntry, error)
	OpenWriter(ctx context.Context, id string) (io.WriteCloser, error)
	SetPending(ctx context.Context, id string, pending bool) (domain.MediaEntry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.MediaEntry, error)
}

// EventSink emits backend state to the UI.
type EventSink interface {
	StatusChanged(status domain.Status)
}
