package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/types"
)

// KeyValue is a synchronous string store
type KeyValue interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// KeyValueDriver stores the whole entry list as one JSON array under a single key
type KeyValueDriver struct {
	kv     KeyValue
	key    string
	logger logging.Logger
}

// NewKeyValueDriver creates a driver over kv. An empty key uses DefaultKey.
func NewKeyValueDriver(kv KeyValue, key string, logger logging.Logger) *KeyValueDriver {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = logging.NewDriverLogger(string(types.DriverLocalStorage))
	}
	return &KeyValueDriver{kv: kv, key: key, logger: logger}
}

// Save overwrites the stored list. Failures are logged and swallowed.
func (d *KeyValueDriver) Save(ctx context.Context, entries []types.Entry) error {
	if entries == nil {
		entries = []types.Entry{}
	}
	data, err := json.Marshal(types.PortableAll(entries))
	if err != nil {
		logging.LogError(d.logger, "Failed to encode logs", err, "key", d.key)
		return nil
	}
	if err := d.kv.Set(d.key, string(data)); err != nil {
		logging.LogError(d.logger, "Failed to save logs", err, "key", d.key)
	}
	return nil
}

// Load returns the stored list, or an empty list when the key is missing or
// the stored value is not a valid JSON array of entries.
func (d *KeyValueDriver) Load(ctx context.Context) ([]types.Entry, error) {
	value, ok, err := d.kv.Get(d.key)
	if err != nil {
		logging.LogError(d.logger, "Failed to load logs", err, "key", d.key)
		return []types.Entry{}, nil
	}
	if !ok || value == "" {
		return []types.Entry{}, nil
	}

	var entries []types.Entry
	if err := json.Unmarshal([]byte(value), &entries); err != nil {
		logging.LogError(d.logger, "Stored logs are corrupted", err, "key", d.key)
		return []types.Entry{}, nil
	}
	if entries == nil {
		entries = []types.Entry{}
	}
	return entries, nil
}

// Clear removes the stored key
func (d *KeyValueDriver) Clear(ctx context.Context) error {
	if err := d.kv.Remove(d.key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", d.key, err)
	}
	return nil
}
