package history

import (
	"context"
	"fmt"

	"github.com/contre95/pluginreloader/src/plugins"
)

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Service reads back the reactions the dispatcher recorded.
type Service struct {
	store plugins.History
}

// NewService creates a new history service.
func NewService(store plugins.History) *Service {
	return &Service{store: store}
}

// Recorder returns the store the dispatcher writes to.
func (s *Service) Recorder() plugins.Recorder {
	return s.store
}

// Recent returns up to limit reactions, newest first. The limit is clamped to MaxLimit and
// falls back to DefaultLimit when not positive.
func (s *Service) Recent(ctx context.Context, limit int) ([]plugins.Reaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	reactions, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}

// Count returns how many reactions were recorded.
func (s *Service) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	return count, nil
}
