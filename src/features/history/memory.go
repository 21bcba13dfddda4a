package history

import (
	"context"
	"slices"
	"sync"

	"github.com/contre95/pluginreloader/src/plugins"
)

// MemoryHistory keeps the most recent reactions in memory. It is used when the database
// is disabled.
type MemoryHistory struct {
	mu        sync.RWMutex
	reactions []plugins.Reaction
	capacity  int
}

// NewMemoryHistory creates a history holding at most capacity reactions.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = MaxLimit
	}
	return &MemoryHistory{capacity: capacity}
}

func (m *MemoryHistory) Record(ctx context.Context, reaction plugins.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, reaction)
	if over := len(m.reactions) - m.capacity; over > 0 {
		m.reactions = slices.Delete(m.reactions, 0, over)
	}
	return nil
}

func (m *MemoryHistory) List(ctx context.Context, limit int) ([]plugins.Reaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.reactions)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryHistory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reactions), nil
}
