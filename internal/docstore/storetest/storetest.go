// Package storetest is a conformance suite for docstore.Store implementations.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/errors"
)

// Run exercises the Store contract against stores built by newStore.
// Each subtest gets a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()

	t.Run("create then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		h, err := s.Create(ctx, []byte(`{"username":"alice123"}`))
		require.NoError(t, err)
		require.NotEmpty(t, h)

		data, err := s.Get(ctx, h)
		require.NoError(t, err)
		assert.JSONEq(t, `{"username":"alice123"}`, string(data))
	})

	t.Run("list returns handles in creation order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		empty, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		var created []docstore.Handle
		for i := range 5 {
			h, err := s.Create(ctx, fmt.Appendf(nil, `{"n":%d}`, i))
			require.NoError(t, err)
			created = append(created, h)
		}

		listed, err := s.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, created, listed)
	})

	t.Run("update replaces document", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		h, err := s.Create(ctx, []byte(`{"email":"old@example.com"}`))
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, h, []byte(`{"email":"new@example.com"}`)))

		data, err := s.Get(ctx, h)
		require.NoError(t, err)
		assert.JSONEq(t, `{"email":"new@example.com"}`, string(data))

		listed, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, listed, 1, "update must not create a document")
	})

	t.Run("unknown handle is not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Get(ctx, "doc-missing")
		assert.ErrorIs(t, err, errors.ErrNotFound)

		err = s.Update(ctx, "doc-missing", []byte(`{}`))
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(context.Background(), []byte(`{"username":`))
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}
