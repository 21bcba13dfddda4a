package autoreload

import (
	"context"
	"log/slog"
	"time"

	"github.com/contre95/pluginreloader/src/features/metrics"
	"github.com/contre95/pluginreloader/src/plugins"
)

// Dispatcher performs the reactions for the events of one cycle.
type Dispatcher struct {
	reloader plugins.Reloader
	notifier plugins.Notifier
	recorder plugins.Recorder
	metrics  *metrics.Collector
}

// NewDispatcher creates a dispatcher. recorder and collector may be nil.
func NewDispatcher(reloader plugins.Reloader, notifier plugins.Notifier, recorder plugins.Recorder, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		reloader: reloader,
		notifier: notifier,
		recorder: recorder,
		metrics:  collector,
	}
}

// Dispatch reacts to events in order and commits each one into snap.
//
// Added and Modified events trigger exactly one reload followed by exactly one notification.
// Removed events are pruned silently. Failing side effects are logged and swallowed; the
// snapshot is committed regardless so a failing reaction is not retried every cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, snap *plugins.Snapshot, events []plugins.ChangeEvent) []plugins.Reaction {
	var reactions []plugins.Reaction
	for _, event := range events {
		d.metrics.ChangeDetected(string(event.Kind))

		if event.Kind == plugins.Removed {
			slog.Info("Archive removed, no longer tracked", "file", event.Name)
			plugins.Apply(snap, event)
			continue
		}

		reactions = append(reactions, d.react(ctx, snap, event))
	}
	return reactions
}

func (d *Dispatcher) react(ctx context.Context, snap *plugins.Snapshot, event plugins.ChangeEvent) plugins.Reaction {
	switch event.Kind {
	case plugins.Added:
		slog.Info("Detected new archive", "file", event.Name)
	case plugins.Modified:
		slog.Info("Detected change in archive", "file", event.Name, "old", event.OldMarker, "new", event.NewMarker)
	}

	reaction := plugins.NewReaction(event)

	if err := d.reloader.Reload(ctx); err != nil {
		d.fail(plugins.StageReload, event.Name, err)
		reaction.ReloadError = err.Error()
	}
	if err := d.notifier.Notify(ctx, event.Name, event.Kind); err != nil {
		d.fail(plugins.StageNotify, event.Name, err)
		reaction.NotifyError = err.Error()
	}

	plugins.Apply(snap, event)
	reaction.At = time.Now()

	if d.recorder != nil {
		if err := d.recorder.Record(ctx, reaction); err != nil {
			d.fail(plugins.StageRecord, event.Name, err)
		}
	}
	return reaction
}

func (d *Dispatcher) fail(stage plugins.ReactionStage, name string, err error) {
	failure := &plugins.ReactionFailure{Stage: stage, Name: name, Err: err}
	slog.Error("Reaction failed", "stage", stage, "file", name, "error", failure)
	d.metrics.ReactionFailed(string(stage))
}
