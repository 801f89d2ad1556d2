// Package store persists games, matches and users in BadgerDB. Values
// are JSON; every multi-key write happens inside a single Badger
// transaction so a failed sub-step rolls back the whole save.
package store

import (
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes. Moves live under their own prefix so the history can be
// replaced wholesale alongside the game row in one transaction.
const (
	prefixGame     = "game:"
	prefixMoves    = "moves:"
	prefixMatch    = "match:"
	prefixUser     = "user:"
	prefixUsername = "username:"
)

// Lookup misses and uniqueness violations.
var (
	ErrGameNotFound  = errors.New("game not found")
	ErrMatchNotFound = errors.New("match not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Store wraps BadgerDB for persistent storage.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database in dir. An empty dir opens an
// in-memory database, used by tests.
func Open(dir string) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil // Badger's own logging is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// getJSON reads and unmarshals one key inside a view transaction.
// Returns badger.ErrKeyNotFound untouched so callers can translate it.
func getJSON(txn *badger.Txn, key string, out interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// setJSON marshals and writes one key inside an update transaction.
func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}
