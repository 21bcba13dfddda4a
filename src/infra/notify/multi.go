package notify

import (
	"context"
	"errors"

	"github.com/contre95/pluginreloader/src/plugins"
)

// Multi fans a notification out to several notifiers. Every notifier is called even if an
// earlier one fails; the failures are joined.
type Multi []plugins.Notifier

// Notify calls every notifier in order.
func (m Multi) Notify(ctx context.Context, name string, kind plugins.ChangeKind) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, name, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
