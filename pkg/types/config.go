package types

import "strings"

// DriverType selects a storage backend
type DriverType string

const (
	DriverLocalStorage DriverType = "localStorage"
	DriverIndexedDB    DriverType = "indexedDB"
	DriverPebble       DriverType = "pebble"
)

// ParseDriverType maps user input to a known driver type. The second return
// value is false for unrecognized input, in which case localStorage is returned.
func ParseDriverType(s string) (DriverType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "localstorage", "keyvalue", "kv", "":
		return DriverLocalStorage, true
	case "indexeddb", "sqlite", "objectstore":
		return DriverIndexedDB, true
	case "pebble":
		return DriverPebble, true
	}
	return DriverLocalStorage, false
}

const DefaultMaxLogs = 500

// Config is the configuration snapshot held by the store
type Config struct {
	Enabled           bool
	Persistence       bool
	PersistenceDriver DriverType
	MaxLogs           int
	OnLogAdded        func(Entry)
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Persistence:       false,
		PersistenceDriver: DriverLocalStorage,
		MaxLogs:           DefaultMaxLogs,
	}
}

// ConfigPatch is a partial configuration. Nil fields leave the current value alone.
type ConfigPatch struct {
	Enabled           *bool
	Persistence       *bool
	PersistenceDriver *DriverType
	MaxLogs           *int
	OnLogAdded        func(Entry)
}

// Apply shallow-merges p into c and returns the result. A non-positive MaxLogs
// is ignored so the bound always stays positive.
func (c Config) Apply(p ConfigPatch) Config {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.Persistence != nil {
		c.Persistence = *p.Persistence
	}
	if p.PersistenceDriver != nil {
		c.PersistenceDriver = *p.PersistenceDriver
	}
	if p.MaxLogs != nil && *p.MaxLogs > 0 {
		c.MaxLogs = *p.MaxLogs
	}
	if p.OnLogAdded != nil {
		c.OnLogAdded = p.OnLogAdded
	}
	return c
}

// Merge combines two patches, with fields set in other taking precedence
func (p ConfigPatch) Merge(other ConfigPatch) ConfigPatch {
	if other.Enabled != nil {
		p.Enabled = other.Enabled
	}
	if other.Persistence != nil {
		p.Persistence = other.Persistence
	}
	if other.PersistenceDriver != nil {
		p.PersistenceDriver = other.PersistenceDriver
	}
	if other.MaxLogs != nil {
		p.MaxLogs = other.MaxLogs
	}
	if other.OnLogAdded != nil {
		p.OnLogAdded = other.OnLogAdded
	}
	return p
}

// State is the log store state. Logs are newest-first.
type State struct {
	Logs        []Entry
	UnreadCount int
	Config      Config
}

// InitialState builds the state a freshly mounted store starts from
func InitialState(overrides ConfigPatch) State {
	return State{
		Logs:   []Entry{},
		Config: DefaultConfig().Apply(overrides),
	}
}

// Ptr is a small helper for building patches
func Ptr[T any](v T) *T {
	return &v
}
