package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/kvstore"
)

func newLocal(t *testing.T) *kvstore.Store {
	t.Helper()
	s, err := kvstore.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSession_StartsAnonymous(t *testing.T) {
	s := New(nil, nil)

	st := s.State()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.Nil(t, s.User())
}

func TestSession_LoginReplaces(t *testing.T) {
	s := New(nil, nil)

	s.Login(&domain.User{Username: "alice123"})
	s.Login(&domain.User{Username: "bob456"})

	assert.True(t, s.Authenticated())
	assert.Equal(t, "bob456", s.User().Username)
}

func TestSession_StateIsASnapshot(t *testing.T) {
	s := New(nil, nil)
	u := &domain.User{Username: "alice123"}
	s.Login(u)

	u.Username = "mutated"
	st := s.State()
	st.User.Username = "also-mutated"

	assert.Equal(t, "alice123", s.User().Username)
}

func TestSession_LogoutRemovesLastUser(t *testing.T) {
	local := newLocal(t)
	ctx := context.Background()
	require.NoError(t, local.Save(ctx, kvstore.LastUserKey, map[string]string{"username": "alice123"}))

	s := New(local, nil)
	s.Login(&domain.User{Username: "alice123"})
	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User())

	var got map[string]string
	assert.ErrorIs(t, local.Load(ctx, kvstore.LastUserKey, &got), errors.ErrNotFound)
}

type failingStore struct{ LastUserStore }

func (failingStore) Remove(context.Context, string) error {
	return errors.Internal("disk full")
}

func TestSession_LogoutClearsEvenIfStoreFails(t *testing.T) {
	s := New(failingStore{}, nil)
	s.Login(&domain.User{Username: "alice123"})

	err := s.Logout(context.Background())

	assert.ErrorIs(t, err, errors.ErrInternal)
	assert.False(t, s.Authenticated())
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New(nil, nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			if i%2 == 0 {
				s.Login(&domain.User{Username: "alice123"})
			} else {
				_ = s.State()
			}
		})
	}
	wg.Wait()
	assert.True(t, s.Authenticated())
}
