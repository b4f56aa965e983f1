package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"repeater/internal/domain"
	"repeater/internal/ports"
)

type recordingSaver struct {
	library   ports.MediaLibrary
	chunkSize int
	logger    *slog.Logger
}

func newRecordingSaver(library ports.MediaLibrary, chunkSize int, logger *slog.Logger) recordingSaver {
	return recordingSaver{library: library, chunkSize: chunkSize, logger: logger}
}

// Insert creates the pending shared-collection entry a copy will fill.
func (s recordingSaver) Insert(ctx context.Context, displayName string) (domain.MediaEntry, error) {
	return s.library.Insert(ctx, domain.MediaValues{
		DisplayName:  displayName,
		MIMEType:     RecordingMIMEType,
		RelativePath: LibraryRelativePath,
		Pending:      true,
	})
}

// Copy streams the scratch file into entry and publishes it. On failure the
// pending entry is deleted so no half-written item is left behind.
func (s recordingSaver) Copy(ctx context.Context, scratchPath string, entry domain.MediaEntry) (domain.SaveResult, error) {
	result, err := s.copy(ctx, scratchPath, entry)
	if err != nil {
		if delErr := s.library.Delete(context.WithoutCancel(ctx), entry.ID); delErr != nil {
			s.logger.Warn("failed to delete pending media entry", "id", entry.ID, "error", delErr)
		}
		return domain.SaveResult{}, err
	}
	return result, nil
}

func (s recordingSaver) copy(ctx context.Context, scratchPath string, entry domain.MediaEntry) (domain.SaveResult, error) {
	src, err := os.Open(scratchPath)
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("failed to open recording: %w", err)
	}
	defer src.Close()

	dst, err := s.library.OpenWriter(ctx, entry.ID)
	if err != nil {
		return domain.SaveResult{}, err
	}

	written, err := pumpBytes(src, dst, s.chunkSize)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to finish writing recording: %w", closeErr)
	}
	if err != nil {
		return domain.SaveResult{}, err
	}

	published, err := s.library.SetPending(ctx, entry.ID, false)
	if err != nil {
		return domain.SaveResult{}, err
	}
	return domain.SaveResult{Entry: published, Bytes: written}, nil
}
