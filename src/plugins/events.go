package plugins

import (
	"time"
)

// ChangeKind classifies a difference between the snapshot and the directory.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Removed  ChangeKind = "removed"
)

// ChangeEvent is produced by one poll cycle and consumed immediately by the dispatcher.
type ChangeEvent struct {
	Kind      ChangeKind
	Name      string
	Path      string
	OldMarker Marker // Zero for Added
	NewMarker Marker // Zero for Removed
}

// Reaction records what happened when an Added or Modified event was dispatched.
type Reaction struct {
	ID          string
	Event       ChangeEvent
	ReloadError string
	NotifyError string
	At          time.Time
}

// Failed reports whether any side effect of the reaction failed.
func (r Reaction) Failed() bool {
	return r.ReloadError != "" || r.NotifyError != ""
}
