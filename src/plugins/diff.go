package plugins

import (
	"cmp"
	"slices"
)

// Diff compares the previous markers against a fresh scan and classifies every difference.
//
// Added and Modified events come first, Removed events last; each group is sorted by name.
// Files that could not be read during the scan are simply absent from current, so a tracked
// one is reported as Removed and an untracked one is never seen. This is a known
// approximation of best-effort polling.
func Diff(prev map[string]Marker, current []TrackedFile) []ChangeEvent {
	seen := make(map[string]struct{}, len(current))
	var changed, removed []ChangeEvent

	for _, f := range current {
		if _, dup := seen[f.Name]; dup {
			continue
		}
		seen[f.Name] = struct{}{}

		old, tracked := prev[f.Name]
		switch {
		case !tracked:
			changed = append(changed, ChangeEvent{Kind: Added, Name: f.Name, Path: f.Path, NewMarker: f.Marker})
		case old != f.Marker:
			changed = append(changed, ChangeEvent{Kind: Modified, Name: f.Name, Path: f.Path, OldMarker: old, NewMarker: f.Marker})
		}
	}

	for name, old := range prev {
		if _, ok := seen[name]; !ok {
			removed = append(removed, ChangeEvent{Kind: Removed, Name: name, OldMarker: old})
		}
	}

	byName := func(a, b ChangeEvent) int { return cmp.Compare(a.Name, b.Name) }
	slices.SortFunc(changed, byName)
	slices.SortFunc(removed, byName)
	return append(changed, removed...)
}

// Replay applies events to the snapshot in order.
func Replay(s *Snapshot, events []ChangeEvent) {
	for _, e := range events {
		Apply(s, e)
	}
}

// Apply commits a single event into the snapshot.
func Apply(s *Snapshot, e ChangeEvent) {
	switch e.Kind {
	case Added, Modified:
		s.Set(e.Name, e.NewMarker)
	case Removed:
		s.Delete(e.Name)
	}
}
