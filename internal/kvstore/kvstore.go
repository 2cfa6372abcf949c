// Package kvstore is the on-device key-value store for small pieces of
// client state such as the last logged-in user.
package kvstore

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/logger"
)

// LastUserKey holds the credentials used for automatic login.
const LastUserKey = "lastUser"

const keyPrefix = "kv:"

// Store keeps JSON values in Badger.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the store in dir.
func Open(dir string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	return open(opts, log)
}

// OpenInMemory opens a store that lives only in memory.
func OpenInMemory(log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, log)
}

func open(opts badger.Options, log *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Store{db: db, logger: logger.OrDiscard(log)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores v under key, replacing any previous value.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return errors.Fetch(err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, errors.KeyInternal, "encode value")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	})
	if err != nil {
		return errors.Wrap(err, errors.KeyInternal, "save value")
	}

	s.logger.Debug("saved local value", "key", key)
	return nil
}

// Load decodes the value under key into out.
// A missing key fails with errors.ErrNotFound.
func (s *Store) Load(ctx context.Context, key string, out any) error {
	if err := ctx.Err(); err != nil {
		return errors.Fetch(err)
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.NotFoundf("no local value for %q", key)
	}
	if err != nil {
		return errors.Wrap(err, errors.KeyDecode, "load value")
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.Fetch(err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
	if err != nil {
		return errors.Wrap(err, errors.KeyInternal, "remove value")
	}

	s.logger.Debug("removed local value", "key", key)
	return nil
}
