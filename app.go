package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"repeater/internal/bootstrap"
	"repeater/internal/domain"
	"repeater/internal/usecase"
)

const (
	eventStatus = "repeater:status"
	eventError  = "repeater:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	services   bootstrap.Services
	controller *usecase.Controller
	bootErr    error

	// emit is swapped in tests.
	emit func(ctx context.Context, name string, data ...interface{})
}

func NewApp() *App {
	return &App{emit: runtime.EventsEmit}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.StartupError(err.Error())
		return
	}

	a.services = services
	a.controller = services.Controller
	a.StatusChanged(a.controller.Status())

	if err := a.controller.EnsurePermission(); err != nil {
		services.Logger.Warn("permission check not started", "error", err)
	}
}

func (a *App) shutdown(_ context.Context) {
	if a.controller == nil {
		return
	}
	if err := a.services.Close(); err != nil {
		a.services.Logger.Warn("failed to close services", "error", err)
	}
}

// ToggleRecord starts a recording, or stops the current one.
func (a *App) ToggleRecord() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.ToggleRecord(); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// Play plays back the last recording.
func (a *App) Play() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Play(); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// Save copies the last recording into the shared collection.
func (a *App) Save() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Save(); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Message: a.bootErr.Error()}
		}
		return domain.Status{
			State:   domain.SessionStateIdle,
			Reason:  domain.StatusReasonReady,
			Message: usecase.StatusMessage(domain.StatusReasonReady, ""),
		}
	}
	return a.controller.Status()
}

// ListRecordings returns the saved recordings, newest first.
func (a *App) ListRecordings() ([]domain.MediaEntry, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Library.List(a.ctx)
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// StatusChanged emits status updates to the frontend.
func (a *App) StatusChanged(status domain.Status) {
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, eventStatus, status)
}

// StartupError emits a startup failure to the UI.
func (a *App) StartupError(detail string) {
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, eventError, map[string]string{
		"code":    string(domain.ErrorCodeStartup),
		"message": "Startup failed",
		"detail":  detail,
	})
}
