package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/kcaldas/devconsole/pkg/console"
	"github.com/kcaldas/devconsole/pkg/events"
	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/state"
	"github.com/kcaldas/devconsole/pkg/storage"
	"github.com/kcaldas/devconsole/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver is an in-memory Driver whose Load can be held back
type fakeDriver struct {
	mu       sync.Mutex
	entries  []types.Entry
	saves    int
	closed   bool
	loadGate chan struct{}
}

func (d *fakeDriver) Save(ctx context.Context, entries []types.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append([]types.Entry(nil), entries...)
	d.saves++
	return nil
}

func (d *fakeDriver) Load(ctx context.Context) ([]types.Entry, error) {
	if d.loadGate != nil {
		<-d.loadGate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.Entry(nil), d.entries...), nil
}

func (d *fakeDriver) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = nil
	return nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDriver) snapshot() ([]types.Entry, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.Entry(nil), d.entries...), d.saves
}

func entryAt(msg, ts string) types.Entry {
	return types.Entry{ID: msg, Level: types.LevelDebug, Message: msg, Timestamp: ts}
}

func newTestProvider(t *testing.T, opts ...Option) (*Provider, *console.Logger) {
	t.Helper()
	facade := console.New()
	base := []Option{WithFacade(facade), WithLogger(logging.NewDisabledLogger())}
	p := New(append(base, opts...)...)
	t.Cleanup(func() { p.Close() })
	return p, facade
}

func messages(logs []types.Entry) []string {
	out := make([]string, len(logs))
	for i, e := range logs {
		out[i] = e.Message
	}
	return out
}

func TestProvider_FlushesFacadeBufferOnMount(t *testing.T) {
	facade := console.New()
	facade.Debug("first")
	facade.Debug("second")

	var added []string
	p := New(
		WithFacade(facade),
		WithLogger(logging.NewDisabledLogger()),
		WithOnLogAdded(func(e types.Entry) { added = append(added, e.Message) }),
	)
	defer p.Close()

	assert.Equal(t, 0, facade.Buffered())
	assert.Equal(t, []string{"second", "first"}, messages(p.State().Logs))
	assert.Equal(t, []string{"first", "second"}, added)
	assert.Equal(t, 2, p.State().UnreadCount)
}

func TestProvider_DefaultConfig(t *testing.T) {
	p, _ := newTestProvider(t)

	cfg := p.Config()
	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.Persistence)
	assert.Equal(t, types.DriverLocalStorage, cfg.PersistenceDriver)
	assert.Equal(t, types.DefaultMaxLogs, cfg.MaxLogs)
}

func TestProvider_DisabledDropsEntries(t *testing.T) {
	called := false
	p, facade := newTestProvider(t,
		WithEnabled(false),
		WithOnLogAdded(func(types.Entry) { called = true }),
	)

	facade.Debug("ignored")
	p.Debug("ignored too")

	assert.Empty(t, p.State().Logs)
	assert.False(t, called)

	p.Dispatch(state.SetConfig{Patch: types.ConfigPatch{Enabled: types.Ptr(true)}})
	facade.Debug("kept")
	assert.Equal(t, []string{"kept"}, messages(p.State().Logs))
	assert.True(t, called)
}

func TestProvider_MaxLogs(t *testing.T) {
	p, _ := newTestProvider(t, WithMaxLogs(2))

	p.Debug("a")
	p.Debug("b")
	p.Debug("c")

	assert.Equal(t, []string{"c", "b"}, messages(p.State().Logs))
}

func TestProvider_ErrorCapture(t *testing.T) {
	p, _ := newTestProvider(t)

	p.Error(errors.New("Test error"))
	p.ErrorString("String error")

	logs := p.State().Logs
	require.Len(t, logs, 2)
	assert.Equal(t, "String error", logs[0].Message)
	assert.Empty(t, logs[0].Stack)
	assert.Equal(t, "Test error", logs[1].Message)
	assert.Equal(t, types.LevelError, logs[1].Level)
	assert.NotEmpty(t, logs[1].Stack)
}

func TestProvider_ObjectAndClear(t *testing.T) {
	p, facade := newTestProvider(t)

	p.Object(map[string]any{"user": "John"}, "Current User")
	facade.Debug("via facade")
	require.Len(t, p.State().Logs, 2)

	facade.Clear()
	assert.Empty(t, p.State().Logs)
	assert.Equal(t, 0, p.State().UnreadCount)

	p.Debug("again")
	p.Clear()
	assert.Empty(t, p.State().Logs)
}

func TestProvider_PanelOpenResetsUnread(t *testing.T) {
	p, _ := newTestProvider(t)

	p.Debug("a")
	p.Debug("b")
	assert.Equal(t, 2, p.State().UnreadCount)
	assert.False(t, p.IsPanelOpen())

	p.SetPanelOpen(true)
	assert.True(t, p.IsPanelOpen())
	assert.Equal(t, 0, p.State().UnreadCount)

	p.SetPanelOpen(false)
	assert.False(t, p.IsPanelOpen())
	assert.Len(t, p.State().Logs, 2)
}

func TestProvider_CloseDetachesFacade(t *testing.T) {
	facade := console.New()
	p := New(WithFacade(facade), WithLogger(logging.NewDisabledLogger()))

	facade.Debug("mounted")
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	facade.Debug("after unmount")
	assert.Equal(t, 1, facade.Buffered())
	assert.Len(t, p.State().Logs, 1)

	next := New(WithFacade(facade), WithLogger(logging.NewDisabledLogger()))
	defer next.Close()
	assert.Equal(t, []string{"after unmount"}, messages(next.State().Logs))
}

func TestProvider_Subscribe(t *testing.T) {
	p, _ := newTestProvider(t)

	var names []string
	unsubscribe := p.Subscribe(func(a state.Action, _ types.State) {
		names = append(names, state.Name(a))
	})

	p.Debug("x")
	p.SetPanelOpen(true)
	unsubscribe()
	p.Clear()

	assert.Equal(t, []string{"ADD_LOG", "RESET_UNREAD"}, names)
}

func TestProvider_PublishesEvents(t *testing.T) {
	bus := events.NewEventBus()
	p, _ := newTestProvider(t, WithEventBus(bus))

	var mu sync.Mutex
	var added []events.EntryAddedEvent
	var toggles []bool
	var actions []string
	bus.Subscribe(events.TopicEntryAdded, func(e interface{}) {
		mu.Lock()
		added = append(added, e.(events.EntryAddedEvent))
		mu.Unlock()
	})
	bus.Subscribe(events.TopicPanelToggled, func(e interface{}) {
		mu.Lock()
		toggles = append(toggles, e.(events.PanelToggledEvent).Open)
		mu.Unlock()
	})
	bus.Subscribe(events.TopicStateChanged, func(e interface{}) {
		mu.Lock()
		actions = append(actions, e.(events.StateChangedEvent).Action)
		mu.Unlock()
	})

	p.Debug("hello")
	p.SetPanelOpen(true)
	p.SetPanelOpen(true)
	bus.Shutdown()

	require.Len(t, added, 1)
	assert.Equal(t, "hello", added[0].Entry.Message)
	assert.Equal(t, 1, added[0].UnreadCount)
	assert.Equal(t, []bool{true}, toggles)
	assert.Equal(t, []string{"ADD_LOG", "RESET_UNREAD", "RESET_UNREAD"}, actions)
}

func TestProvider_Export(t *testing.T) {
	p, _ := newTestProvider(t)
	p.Debug("older")
	p.Object(make(chan int), "bad payload")

	var buf bytes.Buffer
	require.NoError(t, p.Export(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("[\n  {\n    \"id\"")))

	var exported []types.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	require.Len(t, exported, 2)
	assert.Equal(t, types.PayloadPlaceholder, exported[0].Data)
	assert.Equal(t, "older", exported[1].Message)
}

func TestProvider_ExportFile(t *testing.T) {
	p, _ := newTestProvider(t)
	p.Debug("exported")

	dir := filepath.Join(t.TempDir(), "exports")
	path, err := p.ExportFile(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^logs_\d+\.json$`), filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message": "exported"`)
}

func TestExportFileName(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "logs_1700000000123.json", ExportFileName(ts))
}

func TestProvider_PersistenceRestoresNewestFirst(t *testing.T) {
	driver := &fakeDriver{entries: []types.Entry{
		entryAt("oldest", "2026-01-01T00:00:00.000Z"),
		entryAt("newest", "2026-01-03T00:00:00.000Z"),
		entryAt("middle", "2026-01-02T00:00:00.000Z"),
	}}
	p, _ := newTestProvider(t, WithPersistence(types.DriverIndexedDB), WithDriver(driver))

	require.Eventually(t, func() bool { return len(p.State().Logs) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, messages(p.State().Logs))
}

func TestProvider_PersistenceSavesOnClose(t *testing.T) {
	driver := &fakeDriver{entries: []types.Entry{entryAt("stored", "2026-01-01T00:00:00.000Z")}}
	facade := console.New()
	p := New(
		WithFacade(facade),
		WithLogger(logging.NewDisabledLogger()),
		WithPersistence(types.DriverLocalStorage),
		WithDriver(driver),
	)

	facade.Debug("fresh")
	require.NoError(t, p.Close())

	saved, saves := driver.snapshot()
	assert.Positive(t, saves)
	assert.Equal(t, []string{"fresh", "stored"}, messages(saved))
	assert.False(t, driver.closed, "drivers passed with WithDriver belong to the caller")
}

func TestProvider_SavesWaitForInitialLoad(t *testing.T) {
	driver := &fakeDriver{
		entries:  []types.Entry{entryAt("history", "2026-01-01T00:00:00.000Z")},
		loadGate: make(chan struct{}),
	}
	p, _ := newTestProvider(t, WithPersistence(types.DriverLocalStorage), WithDriver(driver))

	p.Debug("while loading")
	_, saves := driver.snapshot()
	assert.Equal(t, 0, saves)

	close(driver.loadGate)
	require.Eventually(t, func() bool {
		saved, _ := driver.snapshot()
		return len(saved) == 2
	}, time.Second, 5*time.Millisecond)

	saved, _ := driver.snapshot()
	assert.Equal(t, []string{"while loading", "history"}, messages(saved))
}

func TestProvider_PersistenceOffNeverTouchesDriver(t *testing.T) {
	driver := &fakeDriver{entries: []types.Entry{entryAt("stored", "2026-01-01T00:00:00.000Z")}}
	p, _ := newTestProvider(t, WithDriver(driver))

	p.Debug("session only")
	require.NoError(t, p.Close())

	saved, saves := driver.snapshot()
	assert.Equal(t, 0, saves)
	assert.Equal(t, []string{"stored"}, messages(saved))
}

func TestProvider_EnablingPersistenceLoadsOnce(t *testing.T) {
	driver := &fakeDriver{entries: []types.Entry{entryAt("stored", "2026-01-01T00:00:00.000Z")}}
	p, _ := newTestProvider(t, WithDriver(driver))
	p.Debug("current")

	enable := state.SetConfig{Patch: types.ConfigPatch{Persistence: types.Ptr(true)}}
	p.Dispatch(enable)
	require.Eventually(t, func() bool { return len(p.State().Logs) == 2 }, time.Second, 5*time.Millisecond)

	// toggling off and on again does not duplicate restored entries
	p.Dispatch(state.SetConfig{Patch: types.ConfigPatch{Persistence: types.Ptr(false)}})
	p.Dispatch(enable)
	require.Eventually(t, func() bool {
		saved, _ := driver.snapshot()
		return len(saved) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"current", "stored"}, messages(p.State().Logs))
}

func TestProvider_KeyValuePersistenceAcrossSessions(t *testing.T) {
	dir := t.TempDir()

	first, facade := newTestProvider(t, WithPersistence(types.DriverLocalStorage), WithStorageDir(dir))
	facade.Debug("from session one")
	require.NoError(t, first.Close())

	second, _ := newTestProvider(t, WithPersistence(types.DriverLocalStorage), WithStorageDir(dir))
	require.Eventually(t, func() bool { return len(second.State().Logs) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "from session one", second.State().Logs[0].Message)

	_, err := os.Stat(filepath.Join(dir, storage.DefaultKey+".json"))
	assert.NoError(t, err)
}

func TestContextAccessor(t *testing.T) {
	assert.PanicsWithValue(t, "provider.FromContext must be used within a mounted Provider", func() {
		FromContext(context.Background())
	})

	_, ok := Lookup(context.Background())
	assert.False(t, ok)

	p, _ := newTestProvider(t)
	ctx := NewContext(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))

	got, ok := Lookup(ctx)
	assert.True(t, ok)
	assert.Same(t, p, got)
}

func TestProvider_WaitLoaded(t *testing.T) {
	driver := &fakeDriver{
		entries:  []types.Entry{entryAt("stored", "2026-01-01T00:00:00.000Z")},
		loadGate: make(chan struct{}),
	}
	p, _ := newTestProvider(t, WithPersistence(types.DriverLocalStorage), WithDriver(driver))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.WaitLoaded(ctx), context.DeadlineExceeded)

	close(driver.loadGate)
	require.NoError(t, p.WaitLoaded(context.Background()))
	assert.Equal(t, []string{"stored"}, messages(p.State().Logs))

	session, _ := newTestProvider(t)
	assert.NoError(t, session.WaitLoaded(context.Background()))
}

func TestProvider_WaitLoadedFollowsReconfigure(t *testing.T) {
	driver := &fakeDriver{
		entries:  []types.Entry{entryAt("stored", "2026-01-01T00:00:00.000Z")},
		loadGate: make(chan struct{}),
	}
	p, _ := newTestProvider(t, WithPersistence(types.DriverLocalStorage), WithDriver(driver))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result := make(chan error, 1)
	go func() { result <- p.WaitLoaded(ctx) }()
	time.Sleep(20 * time.Millisecond)

	p.Dispatch(state.SetConfig{Patch: types.ConfigPatch{Persistence: types.Ptr(false)}})
	close(driver.loadGate)

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitLoaded did not return after the selection changed")
	}
	assert.Empty(t, p.State().Logs, "the superseded load must not be merged")
}

func TestProvider_WaitLoadedWaitsForReplacementLoad(t *testing.T) {
	driver := &fakeDriver{loadGate: make(chan struct{})}
	p, _ := newTestProvider(t, WithPersistence(types.DriverLocalStorage), WithDriver(driver))
	defer close(driver.loadGate)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result := make(chan error, 1)
	go func() { result <- p.WaitLoaded(ctx) }()
	time.Sleep(5 * time.Millisecond)

	// the override still serves the new selection, and its load is held back
	p.Dispatch(state.SetConfig{Patch: types.ConfigPatch{PersistenceDriver: types.Ptr(types.DriverIndexedDB)}})
	assert.ErrorIs(t, <-result, context.DeadlineExceeded)
}
