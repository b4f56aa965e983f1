package commands

import (
	"github.com/charmbracelet/lipgloss"

	"repeater/internal/domain"
)

var (
	primaryColor = lipgloss.Color("#00ff9f")
	dimColor     = lipgloss.Color("#6e7681")
	alertColor   = lipgloss.Color("#ff5f87")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	helpStyle   = lipgloss.NewStyle().Foreground(dimColor)
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(alertColor)
	statusStyle = lipgloss.NewStyle().Foreground(primaryColor)
)

// renderStatus formats a status as "[state] message".
func renderStatus(status domain.Status) string {
	state := string(status.State)
	if state == "" {
		state = string(domain.SessionStateIdle)
	}
	label := labelStyle.Render("[" + state + "]")
	switch status.Reason {
	case domain.StatusReasonRecorderFailed,
		domain.StatusReasonPlayerFailed,
		domain.StatusReasonSaveFailed,
		domain.StatusReasonSaveError,
		domain.StatusReasonPermissionDenied:
		return label + " " + alertStyle.Render(status.Message)
	default:
		return label + " " + statusStyle.Render(status.Message)
	}
}
