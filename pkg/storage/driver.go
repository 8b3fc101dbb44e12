// Package storage provides the persistence backends for captured log entries.
//
// Every backend implements Driver. Select maps a driver type to a backend and
// never fails: unknown types fall back to the key-value driver.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/types"
)

// Driver persists the full list of entries. Save replaces whatever was stored
// before. Implementations must be safe for concurrent use.
type Driver interface {
	Save(ctx context.Context, entries []types.Entry) error
	Load(ctx context.Context) ([]types.Entry, error)
	Clear(ctx context.Context) error
}

const (
	DefaultKey       = "devconsole_logs"
	DefaultDBName    = "devconsole.db"
	DefaultPebbleDir = "devconsole.pebble"
)

// ErrUnknownDriver is returned by ParseDriver for unrecognized driver names
var ErrUnknownDriver = errors.New("unknown storage driver")

// ParseDriver resolves a user supplied driver name. Select itself never fails,
// so this is where typos in flags and settings files are reported.
func ParseDriver(name string) (types.DriverType, error) {
	t, ok := types.ParseDriverType(name)
	if !ok {
		return t, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
	return t, nil
}

// Options configures the drivers built by Select
type Options struct {
	// Dir holds every on-disk artifact. Empty means in-memory for the
	// key-value driver and the working directory for the others.
	Dir string
	// Key is the record name used by the key-value driver
	Key string
	// Logger receives storage failures. Defaults to a driver component logger.
	Logger logging.Logger
}

// Select returns the driver for the given type
func Select(driverType types.DriverType, opts Options) Driver {
	switch driverType {
	case types.DriverIndexedDB:
		return NewSQLiteDriver(filepath.Join(opts.Dir, DefaultDBName), opts.logger(driverType))
	case types.DriverPebble:
		return NewPebbleDriver(filepath.Join(opts.Dir, DefaultPebbleDir), opts.logger(driverType))
	default:
		var kv KeyValue
		if opts.Dir == "" {
			kv = NewMemoryKeyValue()
		} else {
			kv = NewFileKeyValue(opts.Dir)
		}
		return NewKeyValueDriver(kv, opts.Key, opts.logger(types.DriverLocalStorage))
	}
}

func (o Options) logger(driverType types.DriverType) logging.Logger {
	if o.Logger != nil {
		return o.Logger.With("driver", string(driverType))
	}
	return logging.NewDriverLogger(string(driverType))
}

// Close releases driver resources when the driver holds any
func Close(d Driver) error {
	if c, ok := d.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
