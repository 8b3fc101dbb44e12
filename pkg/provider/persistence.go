package provider

import (
	"context"
	"slices"
	"sync"

	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/state"
	"github.com/kcaldas/devconsole/pkg/storage"
	"github.com/kcaldas/devconsole/pkg/types"
)

// persistence keeps a driver in sync with the store. It loads once per
// (Persistence, PersistenceDriver) selection and saves the full list after
// every log change. Saves are coalesced by a single saver goroutine and are
// held back until the pending load has been merged into the store.
type persistence struct {
	store    *state.Store
	opts     storage.Options
	override storage.Driver
	logger   logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	driver     storage.Driver
	enabled    bool
	driverType types.DriverType
	generation int
	loaded     bool
	ready      *readyGate
	closing    bool

	loads       sync.WaitGroup
	saver       sync.WaitGroup
	dirty       chan struct{}
	done        chan struct{}
	unsubscribe func()
}

func newPersistence(store *state.Store, opts storage.Options, override storage.Driver, logger logging.Logger) *persistence {
	ctx, cancel := context.WithCancel(context.Background())
	p := &persistence{
		store:    store,
		opts:     opts,
		override: override,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	p.reconfigure(store.State().Config)
	p.unsubscribe = store.Subscribe(p.onChange)

	p.saver.Add(1)
	go p.runSaver()
	return p
}

func (p *persistence) onChange(action state.Action, next types.State) {
	if _, ok := action.(state.SetConfig); ok {
		p.mu.Lock()
		changed := next.Config.Persistence != p.enabled || next.Config.PersistenceDriver != p.driverType
		p.mu.Unlock()
		if changed {
			p.reconfigure(next.Config)
		}
	}
	if state.ChangesLogs(action) {
		p.markDirty()
	}
}

// reconfigure replaces the active driver and starts loading from it
func (p *persistence) reconfigure(cfg types.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closing {
		return
	}
	p.generation++
	p.enabled = cfg.Persistence
	p.driverType = cfg.PersistenceDriver

	if p.driver != nil && p.driver != p.override {
		if err := storage.Close(p.driver); err != nil {
			logging.LogError(p.logger, "Failed to close storage driver", err)
		}
	}
	p.driver = nil
	p.loaded = false
	// a superseded load never opens its own gate
	if p.ready != nil {
		p.ready.open()
	}
	p.ready = newReadyGate()

	if !cfg.Persistence {
		p.ready.open()
		return
	}

	if p.override != nil {
		p.driver = p.override
	} else {
		p.driver = storage.Select(cfg.PersistenceDriver, p.opts)
	}
	p.logger.Debug("Persistence enabled", "driver", string(cfg.PersistenceDriver))

	p.loads.Add(1)
	go p.load(p.driver, p.generation)
}

func (p *persistence) load(driver storage.Driver, generation int) {
	defer p.loads.Done()

	entries, err := driver.Load(p.ctx)
	if err != nil {
		logging.LogError(p.logger, "Failed to load logs", err)
		entries = nil
	}

	p.mu.Lock()
	if generation != p.generation {
		p.mu.Unlock()
		return
	}
	p.loaded = true
	ready := p.ready
	p.mu.Unlock()

	entries = p.withoutKnown(entries)
	if len(entries) > 0 {
		slices.SortStableFunc(entries, newestFirst)
		p.logger.Debug("Restored logs", "count", len(entries))
		p.store.Dispatch(state.SetLogs{Entries: entries})
	}
	ready.open()
	// entries added while loading were held back
	p.markDirty()
}

// wait blocks until the current selection has been loaded into the store.
// A reconfigure while waiting moves the wait over to the new selection.
func (p *persistence) wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		ready := p.ready
		p.mu.Unlock()

		select {
		case <-ready.ch:
		case <-ctx.Done():
			return ctx.Err()
		}

		p.mu.Lock()
		current := p.ready == ready
		p.mu.Unlock()
		if current {
			return nil
		}
	}
}

// readyGate is closed once a selection's load has been merged, or once the
// selection has been replaced
type readyGate struct {
	ch   chan struct{}
	once sync.Once
}

func newReadyGate() *readyGate {
	return &readyGate{ch: make(chan struct{})}
}

func (g *readyGate) open() {
	g.once.Do(func() { close(g.ch) })
}

// withoutKnown drops loaded entries that are already in the store, which
// happens when persistence is switched off and on again in one session.
func (p *persistence) withoutKnown(entries []types.Entry) []types.Entry {
	current := p.store.State().Logs
	if len(current) == 0 {
		return entries
	}
	known := make(map[string]struct{}, len(current))
	for _, e := range current {
		known[e.ID] = struct{}{}
	}
	return slices.DeleteFunc(entries, func(e types.Entry) bool {
		_, ok := known[e.ID]
		return ok
	})
}

func newestFirst(a, b types.Entry) int {
	return b.Time().Compare(a.Time())
}

func (p *persistence) markDirty() {
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

func (p *persistence) runSaver() {
	defer p.saver.Done()
	for {
		select {
		case <-p.dirty:
			p.save()
		case <-p.done:
			p.save()
			return
		}
	}
}

func (p *persistence) save() {
	p.mu.Lock()
	driver := p.driver
	ready := p.enabled && p.loaded && driver != nil
	p.mu.Unlock()
	if !ready {
		return
	}

	logs := p.store.State().Logs
	if err := driver.Save(p.ctx, logs); err != nil {
		logging.LogError(p.logger, "Failed to save logs", err, "count", len(logs))
	}
}

// Close waits for pending loads, performs a final save and releases the driver
func (p *persistence) Close() error {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()

	p.loads.Wait()
	close(p.done)
	p.saver.Wait()
	p.unsubscribe()

	p.mu.Lock()
	driver := p.driver
	p.driver = nil
	p.mu.Unlock()
	p.cancel()

	// a driver passed in with WithDriver belongs to the caller
	if driver == nil || driver == p.override {
		return nil
	}
	return storage.Close(driver)
}
