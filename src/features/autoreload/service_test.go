package autoreload

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/contre95/pluginreloader/src/features/metrics"
	"github.com/contre95/pluginreloader/src/plugins"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestService(dir *fakeDir, h *host) (*Service, *tickers) {
	ts := &tickers{}
	svc := NewService(dir, NewDispatcher(h, h, nil, nil), Options{Interval: time.Second, NewTicker: ts.New})
	return svc, ts
}

func TestService_BaselineIsSilent(t *testing.T) {
	dir := newFakeDir(map[string]plugins.Marker{"a.jar": 100, "b.jar": 7})
	h := &host{}
	svc, _ := newTestService(dir, h)

	if !svc.Start() {
		t.Fatal("expected Start to report a state change")
	}
	defer svc.Stop()

	result := scanNow(t, svc)
	if len(result.Events) != 0 {
		t.Errorf("expected no events after baseline, got %+v", result.Events)
	}
	if calls := h.log(); len(calls) != 0 {
		t.Errorf("expected no reactions for existing files, got %v", calls)
	}
	want := map[string]plugins.Marker{"a.jar": 100, "b.jar": 7}
	if got := svc.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected snapshot %v, got %v", want, got)
	}
}

func TestService_TickReactsExactlyOnce(t *testing.T) {
	dir := newFakeDir(nil)
	h := &host{}
	svc, ts := newTestService(dir, h)
	svc.Start()
	defer svc.Stop()

	dir.set("a.jar", 100)
	ts.last().tick(t)
	waitFor(t, func() bool { return len(h.log()) == 2 })

	// Further cycles against the unchanged directory stay quiet.
	ts.last().tick(t)
	scanNow(t, svc)

	want := []string{"reload", "notify:a.jar:added"}
	if got := h.log(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	dir.set("a.jar", 200)
	result := scanNow(t, svc)
	if len(result.Events) != 1 || result.Events[0].Kind != plugins.Modified {
		t.Fatalf("expected one Modified event, got %+v", result.Events)
	}
	if result.Events[0].OldMarker != 100 || result.Events[0].NewMarker != 200 {
		t.Errorf("expected markers 100 -> 200, got %+v", result.Events[0])
	}

	dir.remove("a.jar")
	result = scanNow(t, svc)
	if len(result.Events) != 1 || result.Events[0].Kind != plugins.Removed {
		t.Fatalf("expected one Removed event, got %+v", result.Events)
	}
	if len(h.log()) != 4 {
		t.Errorf("expected removal to skip reload and notify, got %v", h.log())
	}
	if len(svc.Snapshot()) != 0 {
		t.Errorf("expected empty snapshot, got %v", svc.Snapshot())
	}
}

func TestService_ToggleStopsAndReenablesWithoutRenotify(t *testing.T) {
	dir := newFakeDir(map[string]plugins.Marker{"a.jar": 100})
	h := &host{}
	svc, ts := newTestService(dir, h)
	svc.Start()
	scanNow(t, svc)
	first := ts.last()

	if svc.Toggle() {
		t.Fatal("expected Toggle to disable a running watcher")
	}
	if svc.Enabled() {
		t.Error("expected watcher to be disabled")
	}
	if !first.isStopped() {
		t.Error("expected ticker to be stopped")
	}
	if svc.Snapshot() != nil {
		t.Errorf("expected snapshot to be discarded, got %v", svc.Snapshot())
	}
	if _, err := svc.ScanNow(context.Background()); !errors.Is(err, plugins.ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}

	// Changes made while disabled are folded into the new baseline.
	dir.set("b.jar", 5)
	dir.set("a.jar", 300)

	if !svc.Toggle() {
		t.Fatal("expected Toggle to enable a stopped watcher")
	}
	defer svc.Stop()
	if ts.last() == first {
		t.Error("expected a fresh ticker after re-enable")
	}

	result := scanNow(t, svc)
	if len(result.Events) != 0 {
		t.Errorf("expected no events after re-enable, got %+v", result.Events)
	}
	if calls := h.log(); len(calls) != 0 {
		t.Errorf("expected no reactions after re-enable, got %v", calls)
	}
	want := map[string]plugins.Marker{"a.jar": 300, "b.jar": 5}
	if got := svc.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected snapshot %v, got %v", want, got)
	}
}

func TestService_StartStopAreIdempotent(t *testing.T) {
	svc, _ := newTestService(newFakeDir(nil), &host{})

	if svc.Stop() {
		t.Error("expected Stop on a stopped watcher to report no change")
	}
	if !svc.Start() {
		t.Error("expected first Start to report a change")
	}
	if svc.Start() {
		t.Error("expected second Start to report no change")
	}
	if !svc.Stop() {
		t.Error("expected Stop to report a change")
	}
	if svc.Status().Enabled {
		t.Error("expected status to report disabled")
	}
}

func TestService_OverlappingCycleIsSkipped(t *testing.T) {
	dir := newFakeDir(nil)
	h := &host{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc, ts := newTestService(dir, h)
	svc.Start()
	defer svc.Stop()
	scanNow(t, svc)

	dir.set("a.jar", 1)
	ts.last().tick(t)

	select {
	case <-h.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the ticked cycle to start reloading")
	}

	result, err := svc.ScanNow(context.Background())
	if !errors.Is(err, ErrCycleInProgress) {
		t.Fatalf("expected ErrCycleInProgress, got %v", err)
	}
	if !result.Skipped {
		t.Error("expected result to be marked as skipped")
	}

	close(h.block)
	waitFor(t, func() bool { return len(h.log()) == 2 })

	result = scanNow(t, svc)
	if len(result.Events) != 0 {
		t.Errorf("expected the in-flight cycle to have committed a.jar, got %+v", result.Events)
	}
}

func TestService_DirectoryUnavailableKeepsRunning(t *testing.T) {
	dir := newFakeDir(map[string]plugins.Marker{"a.jar": 1})
	h := &host{}
	svc, _ := newTestService(dir, h)
	svc.Start()
	defer svc.Stop()
	scanNow(t, svc)

	dir.setUnavailable(true)
	result := scanNow(t, svc)
	if !errors.Is(result.Err, plugins.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", result.Err)
	}
	if len(result.Events) != 0 {
		t.Errorf("expected no events while unavailable, got %+v", result.Events)
	}
	if !svc.Enabled() {
		t.Error("expected watcher to keep running")
	}
	if status := svc.Status(); status.LastError == "" || status.Tracked != 1 {
		t.Errorf("expected last error and kept snapshot, got %+v", status)
	}

	dir.setUnavailable(false)
	dir.set("b.jar", 2)
	result = scanNow(t, svc)
	if len(result.Events) != 1 || result.Events[0].Name != "b.jar" {
		t.Fatalf("expected only b.jar to be added, got %+v", result.Events)
	}
	if result.Err != nil || svc.Status().LastError != "" {
		t.Errorf("expected the error to clear, got %v", result.Err)
	}
}

func TestService_FailedBaselineIsTakenByFirstSuccessfulScan(t *testing.T) {
	dir := newFakeDir(map[string]plugins.Marker{"a.jar": 1})
	dir.setUnavailable(true)
	h := &host{}
	svc, _ := newTestService(dir, h)

	if !svc.Start() {
		t.Fatal("expected Start to succeed while the folder is missing")
	}
	defer svc.Stop()

	dir.setUnavailable(false)
	scanNow(t, svc)
	if got := svc.Snapshot(); len(got) != 1 {
		t.Fatalf("expected a.jar in the late baseline, got %v", got)
	}

	dir.set("b.jar", 2)
	result := scanNow(t, svc)
	if len(result.Events) != 1 || result.Events[0].Name != "b.jar" {
		t.Fatalf("expected only b.jar to be added, got %+v", result.Events)
	}
	want := []string{"reload", "notify:b.jar:added"}
	if got := h.log(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestService_ReconfigureRebaselines(t *testing.T) {
	first := newFakeDir(map[string]plugins.Marker{"a.jar": 1})
	second := newFakeDir(map[string]plugins.Marker{"x.jar": 9, "y.jar": 8})
	h := &host{}
	svc, ts := newTestService(first, h)
	svc.Start()
	defer svc.Stop()
	old := ts.last()

	svc.Reconfigure(second, 5*time.Second)

	if !old.isStopped() {
		t.Error("expected the old loop to be stopped")
	}
	status := svc.Status()
	if !status.Enabled || status.Interval != 5*time.Second {
		t.Errorf("expected running watcher at 5s, got %+v", status)
	}
	want := map[string]plugins.Marker{"x.jar": 9, "y.jar": 8}
	if got := svc.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected snapshot %v, got %v", want, got)
	}
	scanNow(t, svc)
	if calls := h.log(); len(calls) != 0 {
		t.Errorf("expected reconfigure to stay silent, got %v", calls)
	}
}

func TestService_ReconfigureWhileStoppedStaysStopped(t *testing.T) {
	svc, _ := newTestService(newFakeDir(nil), &host{})
	svc.Reconfigure(newFakeDir(nil), 0)

	status := svc.Status()
	if status.Enabled {
		t.Error("expected watcher to stay disabled")
	}
	if status.Interval != time.Second {
		t.Errorf("expected zero interval to keep 1s, got %s", status.Interval)
	}
}

func TestService_RealTicker(t *testing.T) {
	dir := newFakeDir(nil)
	h := &host{}
	svc := NewService(dir, NewDispatcher(h, h, nil, nil), Options{Interval: 10 * time.Millisecond})
	svc.Start()
	defer svc.Stop()

	dir.set("a.jar", 1)
	waitFor(t, func() bool { return len(h.log()) == 2 })
}

// counterValue sums every series of the named counter; a missing family reads as zero.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestService_SlowCycleDropsPendingTick(t *testing.T) {
	dir := &growingDir{fakeDir: newFakeDir(nil), name: "a.jar"}
	h := &host{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	ts := &tickers{buffer: 1}
	svc := NewService(dir, NewDispatcher(h, h, nil, collector), Options{Interval: time.Second, NewTicker: ts.New, Metrics: collector})
	svc.Start()
	defer svc.Stop()

	select {
	case <-h.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the first cycle to start reloading")
	}

	// The interval elapses while the reload is still running.
	ts.last().ch <- time.Now()
	close(h.block)

	waitFor(t, func() bool {
		return counterValue(t, reg, "pluginreloader_cycles_skipped_total") == 1
	})
	if got := dir.scanCount(); got != 2 {
		t.Errorf("expected baseline and one cycle only, got %d scans", got)
	}
	if calls := h.log(); len(calls) != 2 {
		t.Errorf("expected a single reaction, got %v", calls)
	}
}

func TestService_SlowCycleWithRealTicker(t *testing.T) {
	dir := &growingDir{fakeDir: newFakeDir(nil), name: "a.jar"}
	h := &host{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	svc := NewService(dir, NewDispatcher(h, h, nil, collector), Options{Interval: 20 * time.Millisecond, Metrics: collector})
	svc.Start()
	defer svc.Stop()

	select {
	case <-h.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the first cycle to start reloading")
	}
	// Several intervals pass; time.Ticker keeps one of those ticks pending.
	time.Sleep(120 * time.Millisecond)
	close(h.block)

	// The pending tick is counted as skipped instead of starting a cycle straight away.
	waitFor(t, func() bool {
		return counterValue(t, reg, "pluginreloader_cycles_skipped_total") >= 1
	})
	if calls := h.log(); len(calls) != 2 {
		t.Errorf("expected a single reaction, got %v", calls)
	}
}

func TestService_ShortLivedFileIsNeverObserved(t *testing.T) {
	dir := newFakeDir(map[string]plugins.Marker{"a.jar": 1})
	h := &host{}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	ts := &tickers{}
	svc := NewService(dir, NewDispatcher(h, h, nil, collector), Options{Interval: time.Second, NewTicker: ts.New, Metrics: collector})
	svc.Start()
	defer svc.Stop()
	scanNow(t, svc)

	dir.set("b.jar", 5)
	dir.remove("b.jar")
	ts.last().tick(t)
	result := scanNow(t, svc)

	if len(result.Events) != 0 {
		t.Errorf("expected no events, got %+v", result.Events)
	}
	if calls := h.log(); len(calls) != 0 {
		t.Errorf("expected no reload or notify, got %v", calls)
	}
	if got := counterValue(t, reg, "pluginreloader_changes_total"); got != 0 {
		t.Errorf("expected no change of any kind to be counted, got %v", got)
	}
	want := map[string]plugins.Marker{"a.jar": 1}
	if got := svc.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected snapshot %v, got %v", want, got)
	}
}
