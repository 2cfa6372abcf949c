package repository

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/credentials"
	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/docstore/badgerstore"
	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
)

// countingStore wraps a real store and counts calls per primitive.
type countingStore struct {
	docstore.Store

	creates atomic.Int32
	lists   atomic.Int32
	gets    atomic.Int32
	updates atomic.Int32

	mu      sync.Mutex
	failGet map[docstore.Handle]error
	failLst error
}

func (s *countingStore) Create(ctx context.Context, data []byte) (docstore.Handle, error) {
	s.creates.Add(1)
	return s.Store.Create(ctx, data)
}

func (s *countingStore) List(ctx context.Context) ([]docstore.Handle, error) {
	s.lists.Add(1)
	if s.failLst != nil {
		return nil, s.failLst
	}
	return s.Store.List(ctx)
}

func (s *countingStore) Get(ctx context.Context, h docstore.Handle) ([]byte, error) {
	s.gets.Add(1)
	s.mu.Lock()
	err := s.failGet[h]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, h)
}

func (s *countingStore) Update(ctx context.Context, h docstore.Handle, data []byte) error {
	s.updates.Add(1)
	return s.Store.Update(ctx, h, data)
}

func (s *countingStore) writes() int32 {
	return s.creates.Load() + s.updates.Load()
}

func (s *countingStore) reset() {
	s.creates.Store(0)
	s.lists.Store(0)
	s.gets.Store(0)
	s.updates.Store(0)
}

func newTestRepo(t *testing.T, scheme credentials.Scheme) (*Repository, *countingStore) {
	t.Helper()
	backing, err := badgerstore.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { backing.Close() })

	store := &countingStore{Store: backing, failGet: map[docstore.Handle]error{}}
	return New(store, scheme, Config{ScanConcurrency: 4}, nil), store
}

func alice() *domain.User {
	return &domain.User{
		Username: "alice123",
		Password: "Secret123",
		Email:    "alice@example.com",
		PersonalInfo: domain.PersonalInfo{
			Name:    "Alice",
			Surname: "Liddell",
		},
	}
}

func user(n int) *domain.User {
	u := alice()
	u.Username = fmt.Sprintf("user%03d", n)
	u.Email = fmt.Sprintf("user%03d@example.com", n)
	return u
}

func assertSameUser(t *testing.T, want, got *domain.User) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.Username, got.Username)
	assert.Equal(t, want.Password, got.Password)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.PersonalInfo, got.PersonalInfo)
	assert.Equal(t, want.RecentBook, got.RecentBook)
	assert.ElementsMatch(t, want.LikedBooks, got.LikedBooks)
}

func TestRegister_ThenLoginRoundTrips(t *testing.T) {
	for _, scheme := range []credentials.Scheme{credentials.Plaintext{}, credentials.Argon2id{}} {
		t.Run(fmt.Sprintf("%T", scheme), func(t *testing.T) {
			repo, _ := newTestRepo(t, scheme)
			ctx := context.Background()

			registered, hint, err := repo.Register(ctx, NoHint, alice())
			require.NoError(t, err)
			require.True(t, hint.Present())
			assert.Equal(t, "alice123", registered.Username)

			got, loginHint, err := repo.Login(ctx, NoHint, "alice123", "Secret123")
			require.NoError(t, err)
			assert.Equal(t, hint, loginHint)
			assertSameUser(t, registered, got)
		})
	}
}

func TestRegister_StoresSealedPassword(t *testing.T) {
	repo, store := newTestRepo(t, credentials.Argon2id{})
	ctx := context.Background()

	_, hint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)

	data, err := store.Store.Get(ctx, hint.Handle)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Secret123")
}

func TestRegister_DuplicatePerformsNoWrite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *domain.User)
	}{
		{"same username", func(u *domain.User) { u.Email = "other@example.com" }},
		{"same email", func(u *domain.User) { u.Username = "alice456" }},
		{"identical", func(*domain.User) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store := newTestRepo(t, nil)
			ctx := context.Background()

			_, hint, err := repo.Register(ctx, NoHint, alice())
			require.NoError(t, err)
			store.reset()

			candidate := alice()
			tt.mutate(candidate)
			_, gotHint, err := repo.Register(ctx, hint, candidate)

			assert.ErrorIs(t, err, errors.ErrDuplicate)
			assert.Equal(t, 400, errors.From(err).Status)
			assert.Equal(t, hint, gotHint)
			assert.Zero(t, store.writes())
		})
	}
}

func TestRegister_UnreadableDocumentPerformsNoWrite(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	ctx := context.Background()

	_, hint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)
	store.mu.Lock()
	store.failGet[hint.Handle] = errors.Timeout("request timed out")
	store.mu.Unlock()
	store.reset()

	_, gotHint, err := repo.Register(ctx, NoHint, alice())

	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Equal(t, NoHint, gotHint)
	assert.Zero(t, store.writes())

	handles, err := store.Store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, handles, 1)
}

func TestRegister_InvalidCandidatePerformsNoIO(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	candidate := alice()
	candidate.Password = "weak"

	_, _, err := repo.Register(context.Background(), NoHint, candidate)

	assert.ErrorIs(t, err, errors.ErrValidation)
	assert.NotEmpty(t, errors.From(err).Details)
	assert.Zero(t, store.lists.Load())
	assert.Zero(t, store.writes())
}

func TestLogin_UnknownUserAndWrongPasswordAreIdentical(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	_, hint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)

	_, _, unknown := repo.Login(ctx, NoHint, "nobody", "Secret123")
	_, _, wrong := repo.Login(ctx, NoHint, "alice123", "Wrong1234")
	_, _, wrongViaHint := repo.Login(ctx, hint, "alice123", "Wrong1234")

	for _, err := range []error{unknown, wrong, wrongViaHint} {
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	}
	assert.Equal(t, errors.From(unknown).Status, errors.From(wrong).Status)
	assert.Equal(t, errors.From(unknown).Message, errors.From(wrong).Message)
	assert.Equal(t, errors.From(unknown).Message, errors.From(wrongViaHint).Message)
}

func TestLogin_FailureKeepsHint(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	_, hint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)

	_, got, err := repo.Login(ctx, hint, "nobody", "Secret123")
	require.Error(t, err)
	assert.Equal(t, hint, got)
}

func TestLogin_StaleHintFallsBackToScan(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	ctx := context.Background()

	_, aliceHint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)
	_, bobHint, err := repo.Register(ctx, NoHint, user(1))
	require.NoError(t, err)
	store.reset()

	// Hint at another user's document.
	u, hint, err := repo.Login(ctx, bobHint, "alice123", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice123", u.Username)
	assert.Equal(t, aliceHint, hint)
	assert.Equal(t, int32(1), store.lists.Load())

	// Hint at a document that no longer resolves.
	store.reset()
	_, hint, err = repo.Login(ctx, HintAt("doc-gone"), "alice123", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, aliceHint, hint)
	assert.Equal(t, int32(1), store.lists.Load())
}

func TestLogin_ScanSkipsBrokenDocuments(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	ctx := context.Background()

	_, brokenHint, err := repo.Register(ctx, NoHint, user(1))
	require.NoError(t, err)
	_, err = store.Store.Create(ctx, []byte(`["not","a","user"]`))
	require.NoError(t, err)
	_, _, err = repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)

	store.mu.Lock()
	store.failGet[brokenHint.Handle] = errors.Fetch(context.Canceled)
	store.mu.Unlock()

	u, _, err := repo.Login(ctx, NoHint, "alice123", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice123", u.Username)
}

func TestLogin_UnreadableDocumentReportsReadError(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	ctx := context.Background()

	_, hint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)
	_, _, err = repo.Register(ctx, NoHint, user(1))
	require.NoError(t, err)
	store.mu.Lock()
	store.failGet[hint.Handle] = errors.Timeout("request timed out")
	store.mu.Unlock()

	_, got, err := repo.Login(ctx, NoHint, "alice123", "Secret123")
	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.NotErrorIs(t, err, errors.ErrInvalidCredentials)
	assert.Equal(t, NoHint, got)

	// A readable match still wins over an unread document.
	u, _, err := repo.Login(ctx, NoHint, "user001", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "user001", u.Username)
}

func TestLogin_ListFailureFails(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	store.failLst = errors.Timeout("request timed out")

	_, _, err := repo.Login(context.Background(), NoHint, "alice123", "Secret123")
	assert.ErrorIs(t, err, errors.ErrTimeout)
}

func TestLogin_FirstMatchInListOrderWins(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	ctx := context.Background()

	// Two records with the same username can only exist if written around
	// the repository; the first listed one wins.
	first := alice()
	data, err := json.Marshal(first)
	require.NoError(t, err)
	h1, err := store.Store.Create(ctx, data)
	require.NoError(t, err)

	second := alice()
	second.Email = "second@example.com"
	data, err = json.Marshal(second)
	require.NoError(t, err)
	_, err = store.Store.Create(ctx, data)
	require.NoError(t, err)

	u, hint, err := repo.Login(ctx, NoHint, "alice123", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, h1, hint.Handle)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestUpdate_WithoutUserOrHintWritesNothing(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	ctx := context.Background()

	err := repo.Update(ctx, NoHint, alice())
	assert.ErrorIs(t, err, errors.ErrInvalidState)

	err = repo.Update(ctx, HintAt("doc-1"), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidState)

	assert.Zero(t, store.writes())
	assert.Zero(t, store.gets.Load())
}

func TestUpdate_LastWriteWins(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	u, hint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)

	a := u.Clone()
	a.PersonalInfo.Name = "First"
	b := u.Clone()
	b.PersonalInfo.Name = "Second"
	require.NoError(t, repo.Update(ctx, hint, a))
	require.NoError(t, repo.Update(ctx, hint, b))

	got, _, err := repo.Login(ctx, hint, "alice123", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "Second", got.PersonalInfo.Name)
}

func TestSetPasswordAndVerify(t *testing.T) {
	repo, _ := newTestRepo(t, credentials.Argon2id{})
	u := alice()

	require.NoError(t, repo.SetPassword(u, "Another9"))
	assert.True(t, repo.Verify(u, "Another9"))
	assert.False(t, repo.Verify(u, "Secret123"))
	assert.False(t, repo.Verify(nil, "Another9"))

	err := repo.SetPassword(u, "weak")
	assert.ErrorIs(t, err, errors.ErrValidation)
}

// Walks the full lifecycle: register, log in via scan, log in via hint
// without listing, update, and reject a duplicate.
func TestAlice123Scenario(t *testing.T) {
	repo, store := newTestRepo(t, nil)
	ctx := context.Background()

	for i := range 20 {
		_, _, err := repo.Register(ctx, NoHint, user(i))
		require.NoError(t, err)
	}

	registered, hint, err := repo.Register(ctx, NoHint, alice())
	require.NoError(t, err)

	store.reset()
	u, scanHint, err := repo.Login(ctx, NoHint, "alice123", "Secret123")
	require.NoError(t, err)
	assertSameUser(t, registered, u)
	assert.Equal(t, hint, scanHint)
	assert.Equal(t, int32(1), store.lists.Load())
	assert.Equal(t, int32(21), store.gets.Load())

	store.reset()
	u, hintHint, err := repo.Login(ctx, scanHint, "alice123", "Secret123")
	require.NoError(t, err)
	assertSameUser(t, registered, u)
	assert.Equal(t, scanHint, hintHint)
	assert.Zero(t, store.lists.Load(), "hint login must not list")
	assert.Equal(t, int32(1), store.gets.Load())

	u.Like(&domain.Doc{Title: "The Hobbit", AuthorName: []string{"J.R.R. Tolkien"}})
	require.NoError(t, repo.Update(ctx, hintHint, u))

	got, _, err := repo.Login(ctx, hintHint, "alice123", "Secret123")
	require.NoError(t, err)
	assert.True(t, got.IsLiked("The Hobbit"))

	store.reset()
	_, _, err = repo.Register(ctx, hintHint, alice())
	assert.ErrorIs(t, err, errors.ErrDuplicate)
	assert.Zero(t, store.writes())
}
