package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskStore(dir, "public/projects")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	got, err := store.Save(context.Background(), "Photo.JPG", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(got, "public/projects/") {
		t.Errorf("path = %q, want public/projects/ prefix", got)
	}
	if !strings.HasSuffix(got, ".jpg") {
		t.Errorf("path = %q, want lowercased .jpg extension", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(got)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestDiskStoreUniqueNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskStore(dir, "public/projects")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	ctx := context.Background()
	first, err := store.Save(ctx, "a.png", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := store.Save(ctx, "a.png", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first == second {
		t.Error("two uploads of the same filename share a stored path")
	}
}

func TestDiskStoreStripsHostileExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskStore(dir, "public/projects")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	got, err := store.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	rest := strings.TrimPrefix(got, "public/projects/")
	if strings.Contains(rest, "/") || strings.Contains(rest, "..") {
		t.Errorf("stored name %q escapes the upload dir", rest)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("upload dir has %d entries, want 1", len(entries))
	}
}
