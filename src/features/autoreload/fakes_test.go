package autoreload

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/contre95/pluginreloader/src/plugins"
)

// fakeDir is an in-memory directory implementing plugins.Scanner.
type fakeDir struct {
	mu          sync.Mutex
	files       map[string]plugins.Marker
	unavailable bool
	scans       int
}

func newFakeDir(files map[string]plugins.Marker) *fakeDir {
	if files == nil {
		files = map[string]plugins.Marker{}
	}
	return &fakeDir{files: maps.Clone(files)}
}

func (d *fakeDir) Scan(ctx context.Context) ([]plugins.TrackedFile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scans++
	if d.unavailable {
		return nil, fmt.Errorf("%w: /plugins", plugins.ErrDirectoryUnavailable)
	}
	var out []plugins.TrackedFile
	for _, name := range slices.Sorted(maps.Keys(d.files)) {
		out = append(out, plugins.TrackedFile{Name: name, Path: "/plugins/" + name, Marker: d.files[name]})
	}
	return out, nil
}

func (d *fakeDir) scanCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scans
}

// growingDir gains a file right after its first scan, so the baseline misses it and the
// first cycle reports it.
type growingDir struct {
	*fakeDir
	once sync.Once
	name string
}

func (g *growingDir) Scan(ctx context.Context) ([]plugins.TrackedFile, error) {
	files, err := g.fakeDir.Scan(ctx)
	g.once.Do(func() { g.fakeDir.set(g.name, 1) })
	return files, err
}

func (d *fakeDir) set(name string, m plugins.Marker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[name] = m
}

func (d *fakeDir) remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, name)
}

func (d *fakeDir) setUnavailable(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unavailable = v
}

// host records reload and notify calls in a single ordered log.
type host struct {
	mu        sync.Mutex
	calls     []string
	reloadErr error
	notifyErr error
	block     chan struct{} // When set, Reload waits on it
	entered   chan struct{}
}

func (h *host) Reload(ctx context.Context) error {
	if h.block != nil {
		h.entered <- struct{}{}
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "reload")
	return h.reloadErr
}

func (h *host) Notify(ctx context.Context, name string, kind plugins.ChangeKind) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "notify:"+name+":"+string(kind))
	return h.notifyErr
}

func (h *host) log() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

type memoryRecorder struct {
	mu        sync.Mutex
	reactions []plugins.Reaction
	err       error
}

func (r *memoryRecorder) Record(ctx context.Context, reaction plugins.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions = append(r.reactions, reaction)
	return r.err
}

// manualTicker only fires when the test sends on ch.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// tickers hands out a new manualTicker per Start and remembers them. With buffer set to 1
// the channel behaves like time.Ticker, keeping one pending tick for a busy receiver.
type tickers struct {
	mu     sync.Mutex
	all    []*manualTicker
	buffer int
}

func (ts *tickers) New(d time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time, ts.buffer)}
	ts.all = append(ts.all, t)
	return t
}

func (ts *tickers) last() *manualTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.all[len(ts.all)-1]
}

// tick delivers a synthetic tick and fails if the loop is not listening.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not accept tick")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// scanNow retries until no other cycle holds the loop.
func scanNow(t *testing.T, s *Service) CycleResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		result, err := s.ScanNow(context.Background())
		if errors.Is(err, ErrCycleInProgress) {
			time.Sleep(time.Millisecond)
			continue
		}
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		return result
	}
	t.Fatal("could not run a cycle before deadline")
	return CycleResult{}
}
