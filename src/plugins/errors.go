package plugins

import (
	"errors"
	"fmt"
)

// ErrDirectoryUnavailable is returned when the watched directory is missing or unreadable.
var ErrDirectoryUnavailable = errors.New("watched directory unavailable")

// ErrNotRunning is returned when a cycle is requested while auto-reload is disabled.
var ErrNotRunning = errors.New("auto-reload is not running")

// MetadataReadError means a single file's marker could not be read during a scan.
// The file is treated as absent for that cycle only.
type MetadataReadError struct {
	Name string
	Err  error
}

func (e *MetadataReadError) Error() string {
	return fmt.Sprintf("failed to read marker for %s: %v", e.Name, e.Err)
}

func (e *MetadataReadError) Unwrap() error { return e.Err }

// ReactionStage names the side effect that failed while reacting to a change.
type ReactionStage string

const (
	StageReload ReactionStage = "reload"
	StageNotify ReactionStage = "notify"
	StageRecord ReactionStage = "record"
)

// ReactionFailure wraps an error returned by a reload trigger, notifier or recorder.
type ReactionFailure struct {
	Stage ReactionStage
	Name  string
	Err   error
}

func (e *ReactionFailure) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Name, e.Err)
}

func (e *ReactionFailure) Unwrap() error { return e.Err }
