package cache

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var fragmentPrefix = []byte("fragment:")

// DiskStore persists fragments in an embedded BadgerDB so a workspace does
// not need a full reanalysis on every start.
type DiskStore struct {
	db *badger.DB
}

// OpenDiskStore opens (or creates) the store at dir. An empty dir opens an
// in-memory database, useful for tests.
func OpenDiskStore(dir string) (*DiskStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	return &DiskStore{db: db}, nil
}

// Close releases the underlying database.
func (d *DiskStore) Close() error {
	return d.db.Close()
}

func fragmentKey(path string) []byte {
	return append(append([]byte{}, fragmentPrefix...), path...)
}

// SaveFragment writes one file's fragment.
func (d *DiskStore) SaveFragment(path string, frag Fragment) error {
	value, err := json.Marshal(frag)
	if err != nil {
		return fmt.Errorf("failed to encode fragment for %s: %w", path, err)
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(fragmentKey(path), value)
	})
}

// DeleteFragment removes one file's fragment. Deleting a missing fragment is
// not an error.
func (d *DiskStore) DeleteFragment(path string) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(fragmentKey(path))
	})
}

// LoadAll returns every persisted fragment keyed by file path.
func (d *DiskStore) LoadAll() (map[string]Fragment, error) {
	out := make(map[string]Fragment)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = fragmentPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(fragmentPrefix); it.Next() {
			item := it.Item()
			path := string(item.Key()[len(fragmentPrefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var frag Fragment
			if err := json.Unmarshal(value, &frag); err != nil {
				return fmt.Errorf("failed to decode fragment for %s: %w", path, err)
			}
			out[path] = frag
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
