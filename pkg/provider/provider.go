// Package provider mounts a log store: it owns the state store, attaches the
// console facade to it, keeps the persistence driver in sync and exposes the
// operations a panel needs.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kcaldas/devconsole/pkg/console"
	"github.com/kcaldas/devconsole/pkg/events"
	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/state"
	"github.com/kcaldas/devconsole/pkg/storage"
	"github.com/kcaldas/devconsole/pkg/types"
)

// Option configures a Provider
type Option func(*options)

type options struct {
	patch   types.ConfigPatch
	storage storage.Options
	driver  storage.Driver
	logger  logging.Logger
	bus     events.EventBus
	facade  *console.Logger
}

// WithConfig merges a partial configuration over the defaults
func WithConfig(patch types.ConfigPatch) Option {
	return func(o *options) { o.patch = o.patch.Merge(patch) }
}

// WithPersistence turns persistence on with the given driver
func WithPersistence(driver types.DriverType) Option {
	return WithConfig(types.ConfigPatch{
		Persistence:       types.Ptr(true),
		PersistenceDriver: types.Ptr(driver),
	})
}

// WithMaxLogs bounds the number of retained entries
func WithMaxLogs(n int) Option {
	return WithConfig(types.ConfigPatch{MaxLogs: types.Ptr(n)})
}

// WithEnabled toggles capture
func WithEnabled(enabled bool) Option {
	return WithConfig(types.ConfigPatch{Enabled: types.Ptr(enabled)})
}

// WithOnLogAdded registers a callback invoked once per accepted entry
func WithOnLogAdded(fn func(types.Entry)) Option {
	return WithConfig(types.ConfigPatch{OnLogAdded: fn})
}

// WithStorageDir sets the directory the storage drivers write to
func WithStorageDir(dir string) Option {
	return func(o *options) { o.storage.Dir = dir }
}

// WithDriver replaces driver selection with a fixed driver
func WithDriver(d storage.Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithLogger sets the diagnostic logger
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEventBus publishes store changes on bus instead of a private one
func WithEventBus(bus events.EventBus) Option {
	return func(o *options) { o.bus = bus }
}

// WithFacade attaches the provider to l instead of console.Default()
func WithFacade(l *console.Logger) Option {
	return func(o *options) { o.facade = l }
}

// Provider is a mounted log store
type Provider struct {
	store  *state.Store
	logger logging.Logger

	facade       *console.Logger
	detachFacade func()
	direct       *console.Logger
	detachDirect func()

	persistence *persistence
	bus         events.EventBus
	ownedBus    *events.InMemoryBus
	unsubscribe func()

	panelMu   sync.RWMutex
	panelOpen bool

	closeOnce sync.Once
	closeErr  error
}

// New mounts a provider and attaches it to the facade, which flushes its
// buffer into the store. When another goroutine is already delivering through
// the facade, that goroutine finishes the flush after New returns; use
// Subscribe to observe entries as they arrive.
func New(opts ...Option) *Provider {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewComponentLogger("provider")
	}
	if o.storage.Logger == nil {
		o.storage.Logger = o.logger
	}
	if o.facade == nil {
		o.facade = console.Default()
	}

	p := &Provider{
		store:  state.NewStore(types.InitialState(o.patch)),
		logger: o.logger,
		facade: o.facade,
		bus:    o.bus,
	}
	if p.bus == nil {
		p.ownedBus = events.NewEventBus()
		p.bus = p.ownedBus
	}

	p.unsubscribe = p.store.Subscribe(p.publish)
	p.persistence = newPersistence(p.store, o.storage, o.driver, o.logger)

	p.direct = console.New()
	p.detachDirect = p.direct.Attach(p.Dispatch, p.notifyAdded)
	p.detachFacade = p.facade.Attach(p.Dispatch, p.notifyAdded)

	p.logger.Debug("Provider mounted",
		"persistence", p.Config().Persistence,
		"driver", string(p.Config().PersistenceDriver))
	return p
}

// State returns the current snapshot
func (p *Provider) State() types.State {
	return p.store.State()
}

// WaitLoaded blocks until persisted entries have been restored into the
// store. It returns immediately when persistence is off.
func (p *Provider) WaitLoaded(ctx context.Context) error {
	return p.persistence.wait(ctx)
}

// Config returns the current configuration
func (p *Provider) Config() types.Config {
	return p.store.State().Config
}

// Dispatch forwards an action to the store. Entries are dropped while capture
// is disabled.
func (p *Provider) Dispatch(a state.Action) {
	if _, ok := a.(state.AddLog); ok && !p.Config().Enabled {
		return
	}
	p.store.Dispatch(a)
}

func (p *Provider) notifyAdded(e types.Entry) {
	cfg := p.Config()
	if !cfg.Enabled || cfg.OnLogAdded == nil {
		return
	}
	cfg.OnLogAdded(e)
}

// Subscribe registers a synchronous store listener
func (p *Provider) Subscribe(l state.Listener) func() {
	return p.store.Subscribe(l)
}

// Events returns the bus store changes are published on
func (p *Provider) Events() events.Subscriber {
	return p.bus
}

func (p *Provider) publish(action state.Action, next types.State) {
	switch a := action.(type) {
	case state.AddLog:
		events.PublishEvent(p.bus, events.EntryAddedEvent{Entry: a.Entry, UnreadCount: next.UnreadCount})
	case state.ClearLogs:
		events.PublishEvent(p.bus, events.LogsClearedEvent{})
	}
	events.PublishEvent(p.bus, events.StateChangedEvent{Action: state.Name(action), State: next})
}

// IsPanelOpen reports whether the panel is showing the list
func (p *Provider) IsPanelOpen() bool {
	p.panelMu.RLock()
	defer p.panelMu.RUnlock()
	return p.panelOpen
}

// SetPanelOpen opens or closes the panel. Opening marks every entry as read.
func (p *Provider) SetPanelOpen(open bool) {
	p.panelMu.Lock()
	changed := p.panelOpen != open
	p.panelOpen = open
	p.panelMu.Unlock()

	if open {
		p.Dispatch(state.ResetUnread{})
	}
	if changed {
		events.PublishEvent(p.bus, events.PanelToggledEvent{Open: open})
	}
}

// Debug logs a debug message into this provider
func (p *Provider) Debug(message string, title ...string) {
	p.direct.Debug(message, title...)
}

// Error logs an error with its stack trace into this provider
func (p *Provider) Error(err error, title ...string) {
	p.direct.Error(err, title...)
}

// ErrorString logs an error message without a stack trace into this provider
func (p *Provider) ErrorString(message string, title ...string) {
	p.direct.ErrorString(message, title...)
}

// Object logs a value into this provider
func (p *Provider) Object(data any, title ...string) {
	p.direct.Object(data, title...)
}

// Clear empties the list
func (p *Provider) Clear() {
	p.direct.Clear()
}

// Export writes every entry, newest first, as indented JSON
func (p *Provider) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(types.PortableAll(p.State().Logs)); err != nil {
		return fmt.Errorf("failed to export logs: %w", err)
	}
	return nil
}

// ExportFile writes the export to dir/logs_<unix millis>.json and returns its path
func (p *Provider) ExportFile(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, ExportFileName(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := p.Export(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// ExportFileName is the name used by ExportFile for an export taken at t
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("logs_%d.json", t.UnixMilli())
}

// Close unmounts the provider: the facade goes back to buffering, pending
// entries are saved and the driver is released.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		p.detachFacade()
		p.detachDirect()
		p.closeErr = p.persistence.Close()
		p.unsubscribe()
		if p.ownedBus != nil {
			p.ownedBus.Shutdown()
		}
		p.logger.Debug("Provider unmounted")
	})
	return p.closeErr
}
