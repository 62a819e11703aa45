package files_manager

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("xx"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestFindSlideFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.svs"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, "._a.svs"))
	writeFile(t, filepath.Join(root, "case-01", "b.tiff"))
	writeFile(t, filepath.Join(root, "case-01", "b.ndpi"))
	writeFile(t, filepath.Join(root, "case-01", "thumbs.db"))

	files, size, err := FindSlideFiles(root)
	if err != nil {
		t.Fatalf("FindSlideFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 slide files, got %d: %v", len(files), files)
	}
	if size != 6 {
		t.Errorf("Expected total size 6, got %d", size)
	}
	for _, f := range files {
		if filepath.Base(f)[0] == '.' {
			t.Errorf("AppleDouble file not skipped: %s", f)
		}
	}
}

func TestFindSlideFilesEmptyTree(t *testing.T) {
	files, size, err := FindSlideFiles(t.TempDir())
	if err != nil {
		t.Fatalf("FindSlideFiles failed: %v", err)
	}
	if len(files) != 0 || size != 0 {
		t.Errorf("Expected no files, got %d files size %d", len(files), size)
	}
}

func TestFindSlideFilesMissingRoot(t *testing.T) {
	if _, _, err := FindSlideFiles(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Expected an error for a missing root")
	}
}

func TestCheckProvidedDirs(t *testing.T) {
	if err := CheckProvidedDirs(""); err == nil {
		t.Error("Expected an error for an empty input dir")
	}
	if err := CheckProvidedDirs(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Expected an error for a missing input dir")
	}
	if err := CheckProvidedDirs(t.TempDir()); err != nil {
		t.Errorf("Expected a real directory to pass, got %v", err)
	}
}
