package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/docstore/storetest"
)

func newMemStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		return newMemStore(t)
	})
}

func TestStore_ListPreservesCreationOrder(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	var created []docstore.Handle
	for range 200 {
		h, err := s.Create(ctx, []byte(`{}`))
		require.NoError(t, err)
		created = append(created, h)
	}

	listed, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, listed)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	first, err := s.Create(ctx, []byte(`{"username":"alice123"}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	second, err := reopened.Create(ctx, []byte(`{"username":"bob456"}`))
	require.NoError(t, err)

	listed, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []docstore.Handle{first, second}, listed, "sequence continues after reopen")
}

func TestStore_CancelledContext(t *testing.T) {
	s := newMemStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx)
	assert.Error(t, err)
}
