//go:build wireinject

package di

import (
	"github.com/google/wire"
	"github.com/kcaldas/devconsole/cmd/tui"
	"github.com/kcaldas/devconsole/pkg/config"
	"github.com/kcaldas/devconsole/pkg/events"
	"github.com/kcaldas/devconsole/pkg/provider"
	"github.com/kcaldas/devconsole/pkg/view"
)

// Wire set for a mounted provider and its event bus
var ProviderWireSet = wire.NewSet(
	ProvideEventBus,
	wire.Bind(new(events.EventBus), new(*events.InMemoryBus)),
	ProvideProvider,
)

// Wire set for the terminal panel
var PanelWireSet = wire.NewSet(
	ProviderWireSet,
	ProvideClipboard,
	wire.Bind(new(view.Copier), new(*view.Clipboard)),
	ProvidePanel,
	ProvideTUI,
)

// InjectProvider is a wire injector function for a configured provider
func InjectProvider(settings config.Settings) (*provider.Provider, func(), error) {
	wire.Build(ProviderWireSet)
	return nil, nil, nil
}

// InjectTUI is a wire injector function for the terminal panel
func InjectTUI(settings config.Settings, dir ExportDir) (*tui.TUI, func(), error) {
	wire.Build(PanelWireSet)
	return nil, nil, nil
}
