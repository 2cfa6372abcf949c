// Package docstore defines the document storage contract the user
// repository is built on.
//
// A store holds opaque JSON documents addressed by handles it assigns. It
// has no query capability: callers list every handle and read documents one
// by one. Implementations live in the subpackages.
package docstore

import (
	"context"

	"github.com/listenupapp/shelfwise/internal/errors"
)

// Handle is the opaque identifier a store assigns to a document on create.
type Handle string

// String returns the handle as a string.
func (h Handle) String() string { return string(h) }

// Store is a schemaless document store.
//
// Get and Update on an unknown handle fail with errors.ErrNotFound.
// Update replaces the whole document; concurrent writers race and the last
// write wins.
type Store interface {
	Create(ctx context.Context, data []byte) (Handle, error)
	List(ctx context.Context) ([]Handle, error)
	Get(ctx context.Context, h Handle) ([]byte, error)
	Update(ctx context.Context, h Handle, data []byte) error
}

// NotFound is the error every backend returns for an unknown handle.
func NotFound(h Handle) *errors.Error {
	return errors.NotFoundf("document %s not found", h)
}
