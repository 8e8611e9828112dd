// ABOUTME: Charm KV backend using the transactional Do API
// ABOUTME: Short-lived connections to avoid lock contention with other processes

package storage

import (
	"os"

	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is used when CHARM_HOST is not set.
	DefaultCharmHost = "charm.2389.dev"

	// DBName is the name of the charm kv database for readstate.
	DBName = "readstate"
)

// CharmKV stores values in a charm cloud-synced kv database.
// It does not hold a persistent connection; each operation opens the
// database, performs the operation, and closes it.
type CharmKV struct {
	dbName   string
	autoSync bool
}

// NewCharmKV creates a charm-backed store.
func NewCharmKV() (*CharmKV, error) {
	if os.Getenv("CHARM_HOST") == "" {
		os.Setenv("CHARM_HOST", DefaultCharmHost)
	}

	return &CharmKV{
		dbName:   DBName,
		autoSync: true,
	}, nil
}

// NewCharmKVWithDBName creates a charm-backed store with a custom database
// name. Use this for isolated test databases.
func NewCharmKVWithDBName(dbName string, autoSync bool) *CharmKV {
	return &CharmKV{dbName: dbName, autoSync: autoSync}
}

// SetAutoSync enables or disables automatic cloud sync after writes.
func (c *CharmKV) SetAutoSync(enabled bool) {
	c.autoSync = enabled
}

func (c *CharmKV) Get(key string) ([]byte, error) {
	var data []byte
	err := kv.DoReadOnly(c.dbName, func(k *kv.KV) error {
		var err error
		data, err = k.Get([]byte(key))
		return err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

func (c *CharmKV) Set(key string, value []byte) error {
	return c.do(func(k *kv.KV) error {
		return k.Set([]byte(key), value)
	})
}

func (c *CharmKV) Delete(key string) error {
	return c.do(func(k *kv.KV) error {
		return k.Delete([]byte(key))
	})
}

func (c *CharmKV) Keys() ([]string, error) {
	var keys []string
	err := kv.DoReadOnly(c.dbName, func(k *kv.KV) error {
		raw, err := k.Keys()
		if err != nil {
			return err
		}
		keys = make([]string, 0, len(raw))
		for _, key := range raw {
			keys = append(keys, string(key))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Sync manually triggers a sync with the charm server.
func (c *CharmKV) Sync() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// Reset wipes all local data and re-syncs from the cloud.
func (c *CharmKV) Reset() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Reset()
	})
}

// Close is a no-op; the Do API closes connections after each operation.
func (c *CharmKV) Close() error {
	return nil
}

func (c *CharmKV) do(fn func(k *kv.KV) error) error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}
