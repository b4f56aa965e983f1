// Package medialib implements the shared media collection: published files
// live under the library root in their relative path, and an index tracks
// each entry's metadata and pending flag. Pending entries are written under a
// hidden name so other applications scanning the directory do not pick them
// up before they are complete.
package medialib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"repeater/internal/domain"
)

const pendingPrefix = ".pending-"

// Library implements ports.MediaLibrary on the local filesystem.
type Library struct {
	root  string
	index *Index
	now   func() time.Time

	// mu serializes name reservation so two inserts cannot claim one name.
	mu sync.Mutex
}

func New(root string, index *Index) *Library {
	return &Library{root: root, index: index, now: time.Now}
}

func (l *Library) Insert(ctx context.Context, values domain.MediaValues) (domain.MediaEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaEntry{}, err
	}
	if strings.TrimSpace(values.DisplayName) == "" || strings.ContainsAny(values.DisplayName, `/\`) {
		return domain.MediaEntry{}, fmt.Errorf("invalid display name %q", values.DisplayName)
	}
	relative, err := cleanRelativePath(values.RelativePath)
	if err != nil {
		return domain.MediaEntry{}, err
	}

	dir := filepath.Join(l.root, filepath.FromSlash(relative))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.MediaEntry{}, fmt.Errorf("failed to create %q: %w", dir, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	name, err := l.uniqueName(dir, relative, values.DisplayName)
	if err != nil {
		return domain.MediaEntry{}, err
	}

	entry := domain.MediaEntry{
		ID:           uuid.NewString(),
		DisplayName:  name,
		MIMEType:     values.MIMEType,
		RelativePath: relative,
		Pending:      values.Pending,
		CreatedAt:    l.now(),
	}
	entry.Path = l.filePath(entry)

	f, err := os.OpenFile(entry.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.MediaEntry{}, fmt.Errorf("failed to create media file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(entry.Path)
		return domain.MediaEntry{}, err
	}

	if err := l.index.Put(entry); err != nil {
		_ = os.Remove(entry.Path)
		return domain.MediaEntry{}, fmt.Errorf("failed to index media entry: %w", err)
	}
	return entry, nil
}

// OpenWriter truncates the entry's file and opens it for writing.
func (l *Library) OpenWriter(ctx context.Context, id string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, err := l.index.Get(id)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(entry.Path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	return f, nil
}

// SetPending moves the entry between its hidden pending name and its
// published name, refreshing the recorded size.
func (l *Library) SetPending(ctx context.Context, id string, pending bool) (domain.MediaEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaEntry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.index.Get(id)
	if err != nil {
		return domain.MediaEntry{}, err
	}

	if entry.Pending != pending {
		updated := entry
		updated.Pending = pending
		updated.Path = l.filePath(updated)
		if !pending {
			if _, err := os.Stat(updated.Path); err == nil {
				return domain.MediaEntry{}, fmt.Errorf("media file %q already exists", updated.Path)
			}
		}
		if err := os.Rename(entry.Path, updated.Path); err != nil {
			return domain.MediaEntry{}, fmt.Errorf("failed to move media file: %w", err)
		}
		entry = updated
	}

	info, err := os.Stat(entry.Path)
	if err != nil {
		return domain.MediaEntry{}, fmt.Errorf("failed to stat media file: %w", err)
	}
	entry.Size = info.Size()

	if err := l.index.Put(entry); err != nil {
		return domain.MediaEntry{}, fmt.Errorf("failed to update media entry: %w", err)
	}
	return entry, nil
}

// Delete removes the entry's file and index record. A missing file is not an error.
func (l *Library) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.index.Get(id)
	if err != nil {
		return err
	}
	if err := os.Remove(entry.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return l.index.Delete(id)
}

// List returns published entries, newest first.
func (l *Library) List(ctx context.Context) ([]domain.MediaEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := l.index.All()
	if err != nil {
		return nil, err
	}

	published := make([]domain.MediaEntry, 0, len(all))
	for _, entry := range all {
		if !entry.Pending {
			published = append(published, entry)
		}
	}
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].CreatedAt.After(published[j].CreatedAt)
	})
	return published, nil
}

func (l *Library) Close() error {
	return l.index.Close()
}

func (l *Library) filePath(entry domain.MediaEntry) string {
	dir := filepath.Join(l.root, filepath.FromSlash(entry.RelativePath))
	if entry.Pending {
		return filepath.Join(dir, pendingPrefix+entry.ID+"-"+entry.DisplayName)
	}
	return filepath.Join(dir, entry.DisplayName)
}

// uniqueName returns displayName, or "stem (n).ext" when the name is taken on
// disk or claimed by another entry in the same relative path. Caller holds mu.
func (l *Library) uniqueName(dir string, relative string, displayName string) (string, error) {
	entries, err := l.index.All()
	if err != nil {
		return "", err
	}
	claimed := make(map[string]bool)
	for _, entry := range entries {
		if entry.RelativePath == relative {
			claimed[entry.DisplayName] = true
		}
	}

	ext := filepath.Ext(displayName)
	stem := strings.TrimSuffix(displayName, ext)
	candidate := displayName
	for n := 1; ; n++ {
		if !claimed[candidate] {
			_, err := os.Stat(filepath.Join(dir, candidate))
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			if err != nil {
				return "", err
			}
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
}

func cleanRelativePath(relative string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(filepath.ToSlash(relative)), "/")
	if trimmed == "" {
		return "", errors.New("relative path is empty")
	}
	cleaned := path.Clean(trimmed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("relative path %q escapes the library root", relative)
	}
	return cleaned, nil
}
