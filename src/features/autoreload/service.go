package autoreload

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/contre95/pluginreloader/src/features/metrics"
	"github.com/contre95/pluginreloader/src/plugins"
)

// ErrCycleInProgress is returned by ScanNow when another cycle is still running.
var ErrCycleInProgress = errors.New("a cycle is already in progress")

// Options tune the poll loop. Zero values fall back to defaults.
type Options struct {
	Interval  time.Duration
	NewTicker TickerFunc
	Metrics   *metrics.Collector
	// NewScanner rebuilds the scanner when the configuration changes.
	NewScanner ScannerFactory
}

// CycleResult describes one scan, diff and react cycle.
type CycleResult struct {
	At        time.Time
	Duration  time.Duration
	Events    []plugins.ChangeEvent
	Reactions []plugins.Reaction
	Baseline  bool // The scan only established the snapshot
	Skipped   bool
	Err       error
}

// Status is a point-in-time view of the watcher.
type Status struct {
	Enabled   bool
	Interval  time.Duration
	Tracked   int
	LastCycle time.Time
	LastError string
}

// Service owns the auto-reload state: the enabled flag, the snapshot and the poll loop.
type Service struct {
	dispatcher *Dispatcher
	newTicker  TickerFunc
	newScanner ScannerFactory
	metrics    *metrics.Collector

	// lifecycle serializes Start, Stop, Toggle and Reconfigure.
	lifecycle sync.Mutex
	// cycleMu is held for the whole duration of a cycle; ticks that cannot take it are skipped.
	cycleMu sync.Mutex

	mu            sync.RWMutex
	scanner       plugins.Scanner
	interval      time.Duration
	enabled       bool
	snapshot      *plugins.Snapshot
	needsBaseline bool
	stopChan      chan struct{}
	done          chan struct{}
	cancel        context.CancelFunc
	last          CycleResult

	// Only touched while cycleMu is held.
	dirUnavailable bool
}

// NewService creates a stopped auto-reload service.
func NewService(scanner plugins.Scanner, dispatcher *Dispatcher, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	return &Service{
		scanner:    scanner,
		dispatcher: dispatcher,
		interval:   opts.Interval,
		newTicker:  opts.NewTicker,
		newScanner: opts.NewScanner,
		metrics:    opts.Metrics,
	}
}

// Start enables auto-reload. It takes a silent baseline scan, then runs a cycle immediately
// and once per interval. It returns false if the service was already running.
func (s *Service) Start() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.startLocked()
}

// Stop disables auto-reload. A cycle in flight runs to completion; no further cycle starts.
// The snapshot is discarded. It returns false if the service was not running.
func (s *Service) Stop() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.stopLocked()
}

// Toggle flips auto-reload and returns the new state.
func (s *Service) Toggle() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.Enabled() {
		s.stopLocked()
		return false
	}
	s.startLocked()
	return true
}

// Reconfigure swaps the scanner and interval. A running loop is restarted, which rebuilds
// the snapshot from a fresh baseline without announcing existing files.
func (s *Service) Reconfigure(scanner plugins.Scanner, interval time.Duration) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	wasEnabled := s.stopLocked()

	s.mu.Lock()
	s.scanner = scanner
	if interval > 0 {
		s.interval = interval
	}
	s.mu.Unlock()

	slog.Info("Auto-reload reconfigured", "interval", s.interval.String())
	if wasEnabled {
		s.startLocked()
	}
}

// Enabled reports whether the poll loop is running.
func (s *Service) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Snapshot returns a copy of the tracked files, or nil while disabled.
func (s *Service) Snapshot() map[string]plugins.Marker {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return nil
	}
	return snap.Markers()
}

// Status returns the current state of the watcher.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		Enabled:   s.enabled,
		Interval:  s.interval,
		LastCycle: s.last.At,
	}
	if s.snapshot != nil {
		status.Tracked = s.snapshot.Len()
	}
	if s.last.Err != nil {
		status.LastError = s.last.Err.Error()
	}
	return status
}

// ScanNow runs one cycle immediately. It fails with plugins.ErrNotRunning while disabled
// and with ErrCycleInProgress if a cycle is already running.
func (s *Service) ScanNow(ctx context.Context) (CycleResult, error) {
	if !s.Enabled() {
		return CycleResult{}, plugins.ErrNotRunning
	}
	result := s.runCycle(ctx)
	if result.Skipped {
		return result, ErrCycleInProgress
	}
	if errors.Is(result.Err, plugins.ErrNotRunning) {
		return result, result.Err
	}
	return result, nil
}

func (s *Service) startLocked() bool {
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return false
	}
	scanner, interval := s.scanner, s.interval
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	snap := plugins.NewSnapshot()
	needsBaseline := false

	baseline, err := scanner.Scan(ctx)
	if err != nil {
		// The first successful scan becomes the baseline instead.
		slog.Error("Baseline scan failed, will retry on next cycle", "error", err)
		needsBaseline = true
	} else {
		snap = plugins.NewSnapshotFrom(baseline)
	}

	stop, done := make(chan struct{}), make(chan struct{})
	ticker := s.newTicker(interval)

	s.mu.Lock()
	s.enabled = true
	s.snapshot = snap
	s.needsBaseline = needsBaseline
	s.stopChan = stop
	s.done = done
	s.cancel = cancel
	s.mu.Unlock()

	s.metrics.SetEnabled(true)
	s.metrics.SetTracked(snap.Len())
	slog.Info("Auto-reload enabled", "tracked", snap.Len(), "interval", interval.String())

	go s.monitor(ctx, ticker, stop, done)
	return true
}

func (s *Service) stopLocked() bool {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return false
	}
	s.enabled = false
	stop, done, cancel := s.stopChan, s.done, s.cancel
	s.mu.Unlock()

	close(stop)
	<-done

	// Wait for an on-demand cycle that may still hold the snapshot.
	s.cycleMu.Lock()
	s.mu.Lock()
	s.snapshot = nil
	s.needsBaseline = false
	s.stopChan, s.done, s.cancel = nil, nil, nil
	s.mu.Unlock()
	s.dirUnavailable = false
	s.cycleMu.Unlock()
	cancel()

	s.metrics.SetEnabled(false)
	s.metrics.SetTracked(0)
	slog.Info("Auto-reload disabled")
	return true
}

// monitor runs the poll loop until stop is closed.
func (s *Service) monitor(ctx context.Context, ticker Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	s.runCycle(ctx)
	s.dropMissedTicks(ticker)
	for {
		select {
		case <-ticker.C():
			// A tick and a stop may be ready together; stop wins.
			select {
			case <-stop:
				return
			default:
			}
			s.runCycle(ctx)
			s.dropMissedTicks(ticker)
		case <-stop:
			return
		}
	}
}

// dropMissedTicks discards ticks that fired while a cycle was running so a slow cycle is not
// followed by a back-to-back one.
func (s *Service) dropMissedTicks(ticker Ticker) {
	for {
		select {
		case <-ticker.C():
			s.metrics.CycleSkipped()
			slog.Debug("Cycle overran the interval, skipping tick")
		default:
			return
		}
	}
}

// runCycle performs scan, diff and react. It never overlaps with another cycle.
func (s *Service) runCycle(ctx context.Context) CycleResult {
	if !s.cycleMu.TryLock() {
		s.metrics.CycleSkipped()
		slog.Debug("Previous cycle still running, skipping")
		return CycleResult{Skipped: true}
	}
	defer s.cycleMu.Unlock()

	s.mu.RLock()
	snap, scanner, needsBaseline := s.snapshot, s.scanner, s.needsBaseline
	s.mu.RUnlock()
	if snap == nil {
		return CycleResult{Err: plugins.ErrNotRunning}
	}

	start := time.Now()
	result := CycleResult{At: start}

	files, err := scanner.Scan(ctx)
	if err != nil {
		s.scanFailed(err)
		result.Err = err
		result.Duration = time.Since(start)
		s.setLast(result)
		return result
	}
	if s.dirUnavailable {
		slog.Info("Plugins folder available again")
		s.dirUnavailable = false
	}

	if needsBaseline {
		plugins.Replay(snap, plugins.Diff(nil, files))
		s.mu.Lock()
		s.needsBaseline = false
		s.mu.Unlock()
		slog.Info("Baseline established", "tracked", snap.Len())
		result.Baseline = true
	} else {
		result.Events = plugins.Diff(snap.Markers(), files)
		result.Reactions = s.dispatcher.Dispatch(ctx, snap, result.Events)
	}

	result.Duration = time.Since(start)
	s.metrics.CycleCompleted(result.Duration, snap.Len())
	s.setLast(result)
	return result
}

// scanFailed logs a failed scan once per outage and keeps the loop running.
func (s *Service) scanFailed(err error) {
	if !errors.Is(err, plugins.ErrDirectoryUnavailable) {
		slog.Error("Scan failed", "error", err)
		return
	}
	s.metrics.DirectoryUnavailable()
	if s.dirUnavailable {
		slog.Debug("Plugins folder still unavailable", "error", err)
		return
	}
	s.dirUnavailable = true
	slog.Error("Plugins folder not found, retrying every cycle", "error", err)
}

func (s *Service) setLast(result CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = result
}
