package medialib

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"repeater/internal/domain"
)

func newTestLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	index, err := OpenIndex(IndexOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	root := t.TempDir()
	lib := New(root, index)
	t.Cleanup(func() { lib.Close() })
	return lib, root
}

func pendingValues(name string) domain.MediaValues {
	return domain.MediaValues{
		DisplayName:  name,
		MIMEType:     "audio/mp4",
		RelativePath: "Music/Repeater",
		Pending:      true,
	}
}

func TestLibraryPendingLifecycle(t *testing.T) {
	ctx := context.Background()
	lib, root := newTestLibrary(t)

	entry, err := lib.Insert(ctx, pendingValues("repeater_20260101_120000.m4a"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !entry.Pending || entry.ID == "" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	finalPath := filepath.Join(root, "Music", "Repeater", "repeater_20260101_120000.m4a")
	if entry.Path == finalPath {
		t.Fatalf("pending entry must not use the published name")
	}
	if _, err := os.Stat(finalPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("published file should not exist yet, err=%v", err)
	}

	listed, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("pending entries must be hidden, got %d", len(listed))
	}

	w, err := lib.OpenWriter(ctx, entry.ID)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	if _, err := w.Write([]byte("audio")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	published, err := lib.SetPending(ctx, entry.ID, false)
	if err != nil {
		t.Fatalf("SetPending: %v", err)
	}
	if published.Pending || published.Path != finalPath || published.Size != 5 {
		t.Fatalf("unexpected published entry: %+v", published)
	}
	data, err := os.ReadFile(finalPath)
	if err != nil || string(data) != "audio" {
		t.Fatalf("unexpected published contents %q err=%v", data, err)
	}

	listed, err = lib.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != entry.ID || listed[0].MIMEType != "audio/mp4" {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestLibraryInsertUniquifiesCollidingNames(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	first, err := lib.Insert(ctx, pendingValues("repeater_20260101_120000.m4a"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second, err := lib.Insert(ctx, pendingValues("repeater_20260101_120000.m4a"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct IDs")
	}
	if second.DisplayName != "repeater_20260101_120000 (1).m4a" {
		t.Fatalf("unexpected uniquified name: %q", second.DisplayName)
	}

	if _, err := lib.SetPending(ctx, first.ID, false); err != nil {
		t.Fatalf("SetPending first: %v", err)
	}
	third, err := lib.Insert(ctx, pendingValues("repeater_20260101_120000.m4a"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if third.DisplayName != "repeater_20260101_120000 (2).m4a" {
		t.Fatalf("unexpected third name: %q", third.DisplayName)
	}
}

func TestLibraryInsertSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	lib, root := newTestLibrary(t)

	dir := filepath.Join(root, "Music", "Repeater")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "take.m4a"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entry, err := lib.Insert(ctx, pendingValues("take.m4a"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if entry.DisplayName != "take (1).m4a" {
		t.Fatalf("unexpected name: %q", entry.DisplayName)
	}
}

func TestLibraryDeleteRemovesPendingEntry(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	entry, err := lib.Insert(ctx, pendingValues("gone.m4a"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := lib.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(entry.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, err=%v", err)
	}
	if _, err := lib.OpenWriter(ctx, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := lib.Delete(ctx, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLibraryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i, name := range []string{"a.m4a", "b.m4a", "c.m4a"} {
		at := base.Add(time.Duration(i) * time.Minute)
		lib.now = func() time.Time { return at }
		entry, err := lib.Insert(ctx, pendingValues(name))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if _, err := lib.SetPending(ctx, entry.ID, false); err != nil {
			t.Fatalf("SetPending: %v", err)
		}
		ids = append(ids, entry.ID)
	}

	listed, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != ids[2] || listed[2].ID != ids[0] {
		t.Fatalf("unexpected order: %+v", listed)
	}
}

func TestLibraryInsertValidatesInput(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	cases := []domain.MediaValues{
		{DisplayName: "", RelativePath: "Music/Repeater"},
		{DisplayName: "a/b.m4a", RelativePath: "Music/Repeater"},
		{DisplayName: "a.m4a", RelativePath: ""},
		{DisplayName: "a.m4a", RelativePath: "../outside"},
		{DisplayName: "a.m4a", RelativePath: "Music/../../outside"},
	}
	for _, values := range cases {
		if _, err := lib.Insert(ctx, values); err == nil {
			t.Fatalf("expected error for %+v", values)
		}
	}
}

func TestLibraryInsertHonorsCanceledContext(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := lib.Insert(ctx, pendingValues("a.m4a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	index, err := OpenIndex(IndexOptions{Dir: dir})
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	entry := domain.MediaEntry{ID: "abc", DisplayName: "a.m4a", RelativePath: "Music/Repeater", CreatedAt: time.Unix(1700000000, 0).UTC()}
	if err := index.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := index.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenIndex(IndexOptions{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DisplayName != "a.m4a" || !got.CreatedAt.Equal(entry.CreatedAt) {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestOpenIndexRequiresDir(t *testing.T) {
	if _, err := OpenIndex(IndexOptions{}); err == nil {
		t.Fatalf("expected error without dir")
	}
}
