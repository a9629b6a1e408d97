// Package boltstore implements store.Store on a bbolt database. Documents are
// flattened into one bucket keyed by full dot-path; nested reads are rebuilt
// from a prefix scan.
package boltstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/bft-labs/appshell/internal/dotpath"
)

const bucketSettings = "settings"

// initDB holds the bucket initializers run when the database is opened.
var initDB = map[string]func(*bolt.Tx) error{
	"initialize settings table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSettings))
		return err
	},
}

// Store is a bbolt backed store.Store.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path. It fails after one second if
// another process holds the file lock.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements store.Store. A key naming an interior node returns the
// rebuilt subtree.
func (s *Store) Get(key string) (any, bool, error) {
	if _, err := dotpath.Split(key); err != nil {
		return nil, false, err
	}

	var (
		value any
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSettings))
		if raw := b.Get([]byte(key)); raw != nil {
			found = true
			return json.Unmarshal(raw, &value)
		}

		prefix := []byte(key + ".")
		tree := map[string]any{}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var leaf any
			if err := json.Unmarshal(v, &leaf); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			dotpath.SetCreate(tree, strings.Split(string(k[len(prefix):]), "."), leaf)
			found = true
		}
		value = tree
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("boltstore: get %s: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	return value, true, nil
}

// Set implements store.Store. Any previous value at key, below it, or at a
// leaf ancestor of it is replaced.
func (s *Store) Set(key string, value any) error {
	segs, err := dotpath.Split(key)
	if err != nil {
		return fmt.Errorf("boltstore: set: %w", err)
	}

	type entry struct {
		key  string
		data []byte
	}
	var entries []entry
	var encErr error
	dotpath.Flatten(key, value, func(k string, leaf any) {
		if encErr != nil {
			return
		}
		data, err := json.Marshal(leaf)
		if err != nil {
			encErr = fmt.Errorf("boltstore: encode %s: %w", k, err)
			return
		}
		entries = append(entries, entry{k, data})
	})
	if encErr != nil {
		return encErr
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSettings))

		for i := 1; i < len(segs); i++ {
			if err := b.Delete([]byte(strings.Join(segs[:i], "."))); err != nil {
				return err
			}
		}

		stale := [][]byte{[]byte(key)}
		prefix := []byte(key + ".")
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		for _, e := range entries {
			if err := b.Put([]byte(e.key), e.data); err != nil {
				return err
			}
		}
		return nil
	})
}
