package usecase

import (
	"time"

	"repeater/internal/domain"
)

const (
	ScratchFileName     = "temp_recording.m4a"
	DisplayNamePrefix   = "repeater_"
	DisplayNameLayout   = "20060102_150405"
	RecordingExtension  = ".m4a"
	RecordingMIMEType   = "audio/mp4"
	LibraryRelativePath = "Music/Repeater"
)

// DisplayName names a saved copy after the local time of the save, to the second.
func DisplayName(now time.Time) string {
	return DisplayNamePrefix + now.Format(DisplayNameLayout) + RecordingExtension
}

// StatusMessage renders the status text for a reason. detail is used by the
// failure reasons and by saved, where it carries the saved location.
func StatusMessage(reason domain.StatusReason, detail string) string {
	switch reason {
	case domain.StatusReasonReady:
		return "Ready"
	case domain.StatusReasonPermissionPending:
		return "Waiting for microphone permission"
	case domain.StatusReasonPermissionDenied:
		return "Microphone permission denied"
	case domain.StatusReasonRecordingStarted:
		return "Recording…"
	case domain.StatusReasonRecorderFailed:
		return "Recorder error: " + detail
	case domain.StatusReasonRecordingStopped:
		return "Recording stopped."
	case domain.StatusReasonNothingToPlay:
		return "Nothing to play yet"
	case domain.StatusReasonPlaying:
		return "Playing…"
	case domain.StatusReasonPlayed:
		return "Played"
	case domain.StatusReasonPlayerFailed:
		return "Player error: " + detail
	case domain.StatusReasonNothingToSave:
		return "Nothing to save yet"
	case domain.StatusReasonSaveFailed:
		return "Save failed"
	case domain.StatusReasonSaved:
		return "Saved to " + detail
	case domain.StatusReasonSaveError:
		return "Save error: " + detail
	default:
		return detail
	}
}
