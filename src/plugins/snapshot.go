package plugins

import (
	"maps"
	"slices"
	"sync"
)

// Snapshot is the in-memory record of known files and their last observed markers.
// It is safe for concurrent use.
type Snapshot struct {
	mu      sync.RWMutex
	markers map[string]Marker
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{markers: make(map[string]Marker)}
}

// NewSnapshotFrom creates a snapshot holding the given files, typically the result of a baseline scan.
func NewSnapshotFrom(files []TrackedFile) *Snapshot {
	s := NewSnapshot()
	for _, f := range files {
		s.markers[f.Name] = f.Marker
	}
	return s
}

// Get returns the marker stored for name.
func (s *Snapshot) Get(name string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markers[name]
	return m, ok
}

// Set inserts or updates the marker for name.
func (s *Snapshot) Set(name string, marker Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[name] = marker
}

// Delete removes name from the snapshot.
func (s *Snapshot) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, name)
}

// Len returns the number of tracked files.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// Names returns the tracked identities in lexicographic order.
func (s *Snapshot) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.markers))
}

// Markers returns a copy of the identity -> marker mapping.
func (s *Snapshot) Markers() map[string]Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.markers)
}
