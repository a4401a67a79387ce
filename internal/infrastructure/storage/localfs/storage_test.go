package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	path, err := store.Save(context.Background(), "optimized-resume.pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(dir, "optimized-resume.pdf") {
		t.Fatalf("unexpected path %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil || string(raw) != "%PDF" {
		t.Fatalf("unexpected content %q %v", raw, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestSaveSanitizesName(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(dir)

	path, err := store.Save(context.Background(), "../../etc/cv:v2?.docx", strings.NewReader("PK"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Base(path) != "cv_v2_.docx" {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestSaveHonoursCancel(t *testing.T) {
	store, _ := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, "a.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected cancel error")
	}
}
