package autoreload

import (
	"log/slog"

	"github.com/contre95/pluginreloader/src/features/config"
	"github.com/contre95/pluginreloader/src/plugins"
)

// ScannerFactory builds the directory scanner for a configuration.
type ScannerFactory func(cfg *config.Config) plugins.Scanner

// ApplyConfig is registered with config.Manager.OnChange. A change to the watched folder,
// extension, marker mode or interval rebuilds the loop; a change to watcher.enabled starts
// or stops it.
func (s *Service) ApplyConfig(oldCfg, newCfg *config.Config) {
	if oldCfg == nil || newCfg == nil {
		return
	}
	if s.newScanner != nil && watchSettingsChanged(oldCfg, newCfg) {
		slog.Info("Watcher settings changed", "path", newCfg.PluginsPath, "extension", newCfg.Watcher.Extension, "marker", newCfg.Watcher.Marker)
		s.Reconfigure(s.newScanner(newCfg), newCfg.Watcher.Interval)
	}

	if oldCfg.Watcher.Enabled == newCfg.Watcher.Enabled {
		return
	}
	if newCfg.Watcher.Enabled {
		s.Start()
	} else {
		s.Stop()
	}
}

func watchSettingsChanged(oldCfg, newCfg *config.Config) bool {
	return oldCfg.PluginsPath != newCfg.PluginsPath ||
		oldCfg.Watcher.Extension != newCfg.Watcher.Extension ||
		oldCfg.Watcher.Marker != newCfg.Watcher.Marker ||
		oldCfg.Watcher.Interval != newCfg.Watcher.Interval
}
