package notify

import (
	"context"
	"log/slog"

	"github.com/contre95/pluginreloader/src/plugins"
)

// LogNotifier announces changes through the application logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to logger. With a nil logger every change goes
// to whatever slog.Default() is at that moment, so logger hot reloads apply.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the change.
func (n *LogNotifier) Notify(ctx context.Context, name string, kind plugins.ChangeKind) error {
	logger := n.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, name+" "+string(kind), "file", name, "change", kind)
	return nil
}
