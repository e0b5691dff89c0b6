package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileTagsCodeByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "queue.py")
	if err := os.WriteFile(path, []byte("def push(q, x):\n    q.append(x)\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.Name != "queue.py" || got.Lang != "python" {
		t.Fatalf("unexpected source header: %#v", got)
	}
	if got.Text == "" {
		t.Fatal("expected file contents")
	}
}

func TestReadFilePlainTextHasNoLang(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain study notes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.Lang != "" {
		t.Fatalf("text files should carry no language tag, got %q", got.Lang)
	}
}

func TestReadFileRejectsBinary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(path, []byte{0x7f, 0x45, 0x4c, 0x46, 0x00, 0x01}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := ReadFile(path); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.go")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadFilesStopsOnFirstFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "ok.go")
	if err := os.WriteFile(good, []byte("package ok"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := ReadFiles([]string{good, filepath.Join(dir, "missing.go")}); err == nil {
		t.Fatal("expected error when any file is unreadable")
	}

	sources, err := ReadFiles([]string{good})
	if err != nil {
		t.Fatalf("ReadFiles() error = %v", err)
	}
	if len(sources) != 1 || sources[0].Lang != "go" {
		t.Fatalf("unexpected sources: %#v", sources)
	}
}
