package plugins

import (
	"strings"
)

// Marker is a comparable value used to detect whether a file changed since it was last seen.
// Depending on the scanner mode it holds a modification time in Unix milliseconds or a
// content fingerprint.
type Marker int64

// TrackedFile is a single archive observed in the watched directory.
type TrackedFile struct {
	Name   string // Identity inside the watched directory, e.g. "worldedit.jar"
	Path   string
	Marker Marker
}

// MatchesExtension reports whether name ends with ext, ignoring case.
// ext may be given with or without the leading dot and may span several dots (".tar.gz").
func MatchesExtension(name, ext string) bool {
	if ext == "" {
		return true
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}
