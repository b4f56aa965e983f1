package domain

import "time"

// SessionState models which pipeline, if any, currently owns the scratch file.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateRecording SessionState = "recording"
	SessionStatePlaying   SessionState = "playing"
	SessionStateError     SessionState = "error"
)

// StatusReason identifies the outcome that produced the current status text.
type StatusReason string

const (
	StatusReasonReady             StatusReason = "ready"
	StatusReasonPermissionPending StatusReason = "permission_pending"
	StatusReasonPermissionDenied  StatusReason = "permission_denied"
	StatusReasonRecordingStarted  StatusReason = "recording_started"
	StatusReasonRecorderFailed    StatusReason = "recorder_failed"
	StatusReasonRecordingStopped  StatusReason = "recording_stopped"
	StatusReasonNothingToPlay     StatusReason = "nothing_to_play"
	StatusReasonPlaying           StatusReason = "playing"
	StatusReasonPlayed            StatusReason = "played"
	StatusReasonPlayerFailed      StatusReason = "player_failed"
	StatusReasonNothingToSave     StatusReason = "nothing_to_save"
	StatusReasonSaveFailed        StatusReason = "save_failed"
	StatusReasonSaved             StatusReason = "saved"
	StatusReasonSaveError         StatusReason = "save_error"
)

// PermissionState tracks the one-time microphone permission check.
type PermissionState string

const (
	PermissionUnknown  PermissionState = "unknown"
	PermissionChecking PermissionState = "checking"
	PermissionGranted  PermissionState = "granted"
	PermissionDenied   PermissionState = "denied"
)

// ErrorCode identifies backend errors surfaced outside the status text.
type ErrorCode string

const (
	ErrorCodeStartup ErrorCode = "startup"
)

// Status is the single human-readable status surface plus the flags the UI
// needs to label and enable its controls.
type Status struct {
	State      SessionState    `json:"state"`
	Reason     StatusReason    `json:"reason"`
	Message    string          `json:"message"`
	Recording  bool            `json:"recording"`
	Playing    bool            `json:"playing"`
	Permission PermissionState `json:"permission"`
}

// MediaValues are the fields written when inserting into the shared collection.
type MediaValues struct {
	DisplayName  string
	MIMEType     string
	RelativePath string
	Pending      bool
}

// MediaEntry is one item of the shared media collection.
type MediaEntry struct {
	ID           string    `json:"id" msgpack:"id"`
	DisplayName  string    `json:"displayName" msgpack:"display_name"`
	MIMEType     string    `json:"mimeType" msgpack:"mime_type"`
	RelativePath string    `json:"relativePath" msgpack:"relative_path"`
	Pending      bool      `json:"pending" msgpack:"pending"`
	Path         string    `json:"path" msgpack:"path"`
	Size         int64     `json:"size" msgpack:"size"`
	CreatedAt    time.Time `json:"createdAt" msgpack:"created_at"`
}

// SaveResult describes a completed copy into the shared collection.
type SaveResult struct {
	Entry MediaEntry `json:"entry"`
	Bytes int64      `json:"bytes"`
}
