package di

import (
	"fmt"

	"github.com/kcaldas/devconsole/cmd/tui"
	"github.com/kcaldas/devconsole/pkg/config"
	"github.com/kcaldas/devconsole/pkg/events"
	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/provider"
	"github.com/kcaldas/devconsole/pkg/view"
)

// ExportDir is where the panel writes exports
type ExportDir string

// ProvideEventBus provides the bus store changes are published on
func ProvideEventBus() (*events.InMemoryBus, func()) {
	bus := events.NewEventBus()
	return bus, bus.Shutdown
}

// ProvideProvider mounts a provider configured from settings. The cleanup
// unmounts it, saving pending entries.
func ProvideProvider(settings config.Settings, bus events.EventBus) (*provider.Provider, func(), error) {
	patch, err := settings.Patch()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid settings: %w", err)
	}
	dir, err := settings.ResolveDataDir()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewComponentLogger("provider")
	p := provider.New(
		provider.WithConfig(patch),
		provider.WithStorageDir(dir),
		provider.WithEventBus(bus),
		provider.WithLogger(logger),
	)
	cleanup := func() {
		if err := p.Close(); err != nil {
			logging.LogError(logger, "Failed to close provider", err)
		}
	}
	return p, cleanup, nil
}

// ProvideClipboard provides the system clipboard
func ProvideClipboard() *view.Clipboard {
	return view.NewClipboard()
}

// ProvidePanel provides the panel model over a mounted provider
func ProvidePanel(p *provider.Provider, copier view.Copier, dir ExportDir) *tui.Panel {
	return tui.NewPanel(p, copier, string(dir))
}

// ProvideTUI provides the terminal UI. The cleanup restores the terminal.
func ProvideTUI(panel *tui.Panel, p *provider.Provider) (*tui.TUI, func(), error) {
	t, err := tui.NewTUI(panel, p.Events())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start terminal UI: %w", err)
	}
	return t, t.Close, nil
}
