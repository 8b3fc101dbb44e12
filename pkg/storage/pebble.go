package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/types"
)

var (
	pebbleLogPrefix = []byte("log/")
	// upper bound of the log/ key range: '/' + 1
	pebbleLogEnd = []byte("log0")
)

// PebbleDriver is an object-store driver on an embedded Pebble database.
// Entries live under log/<id>; Load does not order its result.
type PebbleDriver struct {
	dir    string
	logger logging.Logger

	mu sync.Mutex
	db *pebble.DB
}

// NewPebbleDriver creates a driver for the database directory dir. The
// database is opened lazily on first use.
func NewPebbleDriver(dir string, logger logging.Logger) *PebbleDriver {
	if logger == nil {
		logger = logging.NewDriverLogger(string(types.DriverPebble))
	}
	return &PebbleDriver{dir: dir, logger: logger}
}

func (d *PebbleDriver) open() (*pebble.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db, nil
	}
	if d.dir == "" {
		return nil, errors.New("pebble: data directory is required")
	}

	db, err := pebble.Open(d.dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", d.dir, err)
	}
	d.db = db
	return db, nil
}

func pebbleKey(id string) []byte {
	key := make([]byte, 0, len(pebbleLogPrefix)+len(id))
	key = append(key, pebbleLogPrefix...)
	return append(key, id...)
}

// Save replaces the stored entries in a single batch
func (d *PebbleDriver) Save(ctx context.Context, entries []types.Entry) error {
	db, err := d.open()
	if err != nil {
		return err
	}

	b := db.NewBatch()
	defer b.Close()

	if err := b.DeleteRange(pebbleLogPrefix, pebbleLogEnd, nil); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	for _, e := range entries {
		data, err := json.Marshal(types.Portable(e))
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", e.ID, err)
		}
		if err := b.Set(pebbleKey(e.ID), data, nil); err != nil {
			return fmt.Errorf("failed to stage entry %s: %w", e.ID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// Load returns every stored entry in key order, which is unrelated to creation order
func (d *PebbleDriver) Load(ctx context.Context) ([]types.Entry, error) {
	db, err := d.open()
	if err != nil {
		return nil, err
	}

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: pebbleLogPrefix,
		UpperBound: pebbleLogEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}
	defer iter.Close()

	entries := []types.Entry{}
	for iter.First(); iter.Valid(); iter.Next() {
		var e types.Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			d.logger.Warn("Skipping corrupted log record", "key", string(iter.Key()), "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return entries, nil
}

// Clear deletes every stored entry
func (d *PebbleDriver) Clear(ctx context.Context) error {
	db, err := d.open()
	if err != nil {
		return err
	}
	if err := db.DeleteRange(pebbleLogPrefix, pebbleLogEnd, pebble.Sync); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	return nil
}

// Close closes the database if it was opened
func (d *PebbleDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
