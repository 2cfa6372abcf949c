// Package badgerstore keeps documents in an embedded Badger database.
package badgerstore

import (
	"context"
	"encoding/json/jsontext"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/id"
	"github.com/listenupapp/shelfwise/internal/logger"
)

// Key layout:
//
//	doc:<handle>        document body
//	order:<seq>         handle, seq zero-padded so keys sort by creation
const (
	docPrefix    = "doc:"
	orderPrefix  = "order:"
	seqKey       = "seq:documents"
	seqBandwidth = 64
)

// Store is a docstore.Store on Badger.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// Open opens or creates the database in dir.
func Open(dir string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts, log)
}

// OpenInMemory opens a database that lives only in memory.
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

	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sequence: %w", err)
	}

	return &Store{db: db, seq: seq, logger: logger.OrDiscard(log)}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("release sequence", "error", err)
	}
	return s.db.Close()
}

// Create stores a new document.
func (s *Store) Create(ctx context.Context, data []byte) (docstore.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Fetch(err)
	}
	if !jsontext.Value(data).IsValid() {
		return "", errors.Validation("document is not valid JSON")
	}

	handle, err := id.Document()
	if err != nil {
		return "", errors.Wrap(err, errors.KeyInternal, "generate handle")
	}
	n, err := s.seq.Next()
	if err != nil {
		return "", errors.Wrap(err, errors.KeyInternal, "next sequence")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(docKey(docstore.Handle(handle)), data); err != nil {
			return err
		}
		return txn.Set(orderKey(n), []byte(handle))
	})
	if err != nil {
		return "", errors.Wrap(err, errors.KeyInternal, "write document")
	}

	return docstore.Handle(handle), nil
}

// List returns every handle in creation order.
func (s *Store) List(ctx context.Context) ([]docstore.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Fetch(err)
	}

	var handles []docstore.Handle
	prefix := []byte(orderPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				handles = append(handles, docstore.Handle(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KeyInternal, "list documents")
	}
	return handles, nil
}

// Get returns the document at h.
func (s *Store) Get(ctx context.Context, h docstore.Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Fetch(err)
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(h))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, docstore.NotFound(h)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.KeyInternal, "read document")
	}
	return data, nil
}

// Update replaces the document at h.
func (s *Store) Update(ctx context.Context, h docstore.Handle, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.Fetch(err)
	}
	if !jsontext.Value(data).IsValid() {
		return errors.Validation("document is not valid JSON")
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(docKey(h)); err != nil {
			return err
		}
		return txn.Set(docKey(h), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return docstore.NotFound(h)
	}
	if err != nil {
		return errors.Wrap(err, errors.KeyInternal, "write document")
	}
	return nil
}

func docKey(h docstore.Handle) []byte {
	return []byte(docPrefix + string(h))
}

func orderKey(n uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", orderPrefix, n)
}
