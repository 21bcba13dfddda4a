package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/contre95/pluginreloader/src/plugins"
)

func writeFile(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set times on %s: %v", name, err)
	}
	return path
}

func TestScan_FiltersByExtensionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	mtime := time.UnixMilli(1_700_000_000_000)
	writeFile(t, dir, "a.jar", "a", mtime)
	writeFile(t, dir, "B.JAR", "b", mtime)
	writeFile(t, dir, "readme.txt", "r", mtime)
	if err := os.Mkdir(filepath.Join(dir, "dir.jar"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	files, err := NewDirectoryScanner(dir, ".jar", ModeMtime).Scan(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := map[string]plugins.Marker{}
	for _, f := range files {
		got[f.Name] = f.Marker
		if f.Path != filepath.Join(dir, f.Name) {
			t.Errorf("expected path under %s, got %s", dir, f.Path)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 archives, got %v", got)
	}
	if got["a.jar"] != plugins.Marker(mtime.UnixMilli()) {
		t.Errorf("expected mtime marker %d, got %d", mtime.UnixMilli(), got["a.jar"])
	}
	if _, ok := got["B.JAR"]; !ok {
		t.Error("expected upper-case extension to match")
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")

	files, err := NewDirectoryScanner(dir, ".jar", ModeMtime).Scan(context.Background())
	if !errors.Is(err, plugins.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty result, got %v", files)
	}
}

func TestScan_ChecksumModeIgnoresTouch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.jar", "content", time.UnixMilli(1000))
	s := NewDirectoryScanner(dir, ".jar", ModeChecksum)

	first, err := s.Scan(context.Background())
	if err != nil || len(first) != 1 {
		t.Fatalf("expected one file, got %v (%v)", first, err)
	}

	later := time.UnixMilli(5000)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("failed to touch: %v", err)
	}
	second, _ := s.Scan(context.Background())
	if second[0].Marker != first[0].Marker {
		t.Errorf("expected checksum to ignore mtime, got %d then %d", first[0].Marker, second[0].Marker)
	}

	writeFile(t, dir, "a.jar", "changed", later)
	third, _ := s.Scan(context.Background())
	if third[0].Marker == first[0].Marker {
		t.Error("expected checksum to change with content")
	}
}

func TestScan_DanglingSymlinkIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jar", "a", time.UnixMilli(1000))
	if err := os.Symlink(filepath.Join(dir, "missing.jar"), filepath.Join(dir, "broken.jar")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, err := NewDirectoryScanner(dir, "jar", ModeMtime).Scan(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(files) != 1 || files[0].Name != "a.jar" {
		t.Errorf("expected only a.jar, got %v", files)
	}
}
