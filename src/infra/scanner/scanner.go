package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/contre95/pluginreloader/src/plugins"
)

// MarkerMode selects how a file's marker is computed.
type MarkerMode string

const (
	// ModeMtime uses the modification time in Unix milliseconds.
	ModeMtime MarkerMode = "mtime"
	// ModeChecksum uses an xxhash64 digest of the file content.
	ModeChecksum MarkerMode = "checksum"
)

// DirectoryScanner lists the archives of a single directory. It does not recurse.
type DirectoryScanner struct {
	dir       string
	extension string
	mode      MarkerMode
}

// NewDirectoryScanner creates a scanner for dir keeping files that end with extension.
func NewDirectoryScanner(dir, extension string, mode MarkerMode) *DirectoryScanner {
	if mode == "" {
		mode = ModeMtime
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &DirectoryScanner{dir: dir, extension: extension, mode: mode}
}

// Dir returns the absolute path of the watched directory.
func (s *DirectoryScanner) Dir() string {
	return s.dir
}

// Scan returns the regular files of the directory matching the extension.
// Files whose marker cannot be read are logged and left out of the result.
func (s *DirectoryScanner) Scan(ctx context.Context) ([]plugins.TrackedFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", plugins.ErrDirectoryUnavailable, s.dir, err)
	}

	files := make([]plugins.TrackedFile, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !plugins.MatchesExtension(entry.Name(), s.extension) {
			continue
		}

		file, ok, err := s.track(entry)
		if err != nil {
			slog.Warn("Skipping file for this cycle", "file", entry.Name(), "error", err)
			continue
		}
		if ok {
			files = append(files, file)
		}
	}
	return files, nil
}

// track builds the TrackedFile for an entry. It returns ok=false for non regular files.
func (s *DirectoryScanner) track(entry os.DirEntry) (plugins.TrackedFile, bool, error) {
	path := filepath.Join(s.dir, entry.Name())

	// Info follows the entry itself, Stat follows symlinks to the archive they point at.
	info, err := os.Stat(path)
	if err != nil {
		return plugins.TrackedFile{}, false, &plugins.MetadataReadError{Name: entry.Name(), Err: err}
	}
	if !info.Mode().IsRegular() {
		return plugins.TrackedFile{}, false, nil
	}

	marker := plugins.Marker(info.ModTime().UnixMilli())
	if s.mode == ModeChecksum {
		sum, err := checksum(path)
		if err != nil {
			return plugins.TrackedFile{}, false, &plugins.MetadataReadError{Name: entry.Name(), Err: err}
		}
		marker = plugins.Marker(sum)
	}

	return plugins.TrackedFile{Name: entry.Name(), Path: path, Marker: marker}, true, nil
}

func checksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
