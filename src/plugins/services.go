package plugins

import (
	"context"

	"github.com/google/uuid"
)

// Scanner lists the archives currently present in the watched directory.
type Scanner interface {
	Scan(ctx context.Context) ([]TrackedFile, error)
}

// Reloader triggers the host reload. Its cost and semantics belong to the host.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Notifier broadcasts a detected change to observers.
type Notifier interface {
	Notify(ctx context.Context, name string, kind ChangeKind) error
}

// Recorder persists dispatched reactions.
type Recorder interface {
	Record(ctx context.Context, reaction Reaction) error
}

// History reads back recorded reactions, newest first.
type History interface {
	Recorder
	List(ctx context.Context, limit int) ([]Reaction, error)
	Count(ctx context.Context) (int, error)
}

// generateID creates a new UUID string
func generateID() string {
	return uuid.New().String()
}

// NewReaction creates a reaction record for an event.
func NewReaction(event ChangeEvent) Reaction {
	return Reaction{ID: generateID(), Event: event}
}
