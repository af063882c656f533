package cover

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "5114.jpg")
	img := []byte("not really a jpeg")

	err := Save(t.Context(), bytes.NewReader(img), int64(len(img)), dest, discardLogger(), WithProgress())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading saved cover: %v", err)
	}
	if !bytes.Equal(got, img) {
		t.Errorf("exp %q, got %q", img, got)
	}

	assertNoTempFiles(t, dir)
}

func TestSave_UnknownLength(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "cover.jpg")

	if err := Save(t.Context(), strings.NewReader("abc"), -1, dest, discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSave_ContentLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "cover.jpg")

	err := Save(t.Context(), strings.NewReader("short"), 100, dest, discardLogger())
	if !errors.Is(err, ErrContentLengthMismatch) {
		t.Fatalf("exp ErrContentLengthMismatch, got %v", err)
	}

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not exist after a failed save")
	}
	assertNoTempFiles(t, dir)
}

func TestSave_Cancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := Save(ctx, strings.NewReader("data"), 4, filepath.Join(dir, "cover.jpg"), discardLogger())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("exp ErrCancelled, got %v", err)
	}
	assertNoTempFiles(t, dir)
}

func TestSave_SkipExisting(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "cover.jpg")
	if err := os.WriteFile(dest, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Save(t.Context(), strings.NewReader("replacement"), -1, dest, discardLogger(), WithSkipExisting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := os.ReadFile(dest)
	if string(got) != "original" {
		t.Errorf("existing file was overwritten: %q", got)
	}
}

func TestSave_EmptyPath(t *testing.T) {
	if err := Save(t.Context(), strings.NewReader(""), 0, "", discardLogger()); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("exp ErrEmptyPath, got %v", err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".animeshelf-cover-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
