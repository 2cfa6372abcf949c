package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/credentials"
	"github.com/listenupapp/shelfwise/internal/docstore/badgerstore"
	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/kvstore"
	"github.com/listenupapp/shelfwise/internal/repository"
	"github.com/listenupapp/shelfwise/internal/session"
)

type accountFixture struct {
	svc   *AccountService
	repo  *repository.Repository
	local *kvstore.Store
	docs  *badgerstore.Store
}

func setupAccountTest(t *testing.T, scheme credentials.Scheme) *accountFixture {
	t.Helper()

	docs, err := badgerstore.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	local, err := kvstore.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	repo := repository.New(docs, scheme, repository.Config{}, nil)
	svc := NewAccountService(repo, session.New(local, nil), local, nil)
	return &accountFixture{svc: svc, repo: repo, local: local, docs: docs}
}

func newUser() *domain.User {
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

func hobbit() *domain.Doc {
	return &domain.Doc{
		Title:      "The Hobbit",
		AuthorName: []string{"J.R.R. Tolkien"},
		ISBN:       []string{"9780547928227"},
		Subject:    []string{"fantasy", "dragons"},
	}
}

func TestAccountService_RegisterLogsInAndRemembers(t *testing.T) {
	f := setupAccountTest(t, nil)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, newUser())
	require.NoError(t, err)
	assert.Equal(t, "alice123", u.Username)

	st := f.svc.Session()
	assert.True(t, st.Authenticated)
	assert.Equal(t, "alice123", st.User.Username)

	var last LastUser
	require.NoError(t, f.local.Load(ctx, kvstore.LastUserKey, &last))
	assert.Equal(t, "alice123", last.Username)
	assert.Equal(t, "Secret123", last.Password)
	assert.NotEmpty(t, last.Handle)
}

func TestAccountService_RegisterWhileAuthenticated(t *testing.T) {
	f := setupAccountTest(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, newUser())
	require.NoError(t, err)

	other := newUser()
	other.Username = "bob456"
	other.Email = "bob@example.com"
	_, err = f.svc.Register(ctx, other)
	assert.ErrorIs(t, err, errors.ErrAlreadyAuthenticated)

	handles, err := f.docs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, handles, 1)
}

func TestAccountService_LoginLogout(t *testing.T) {
	f := setupAccountTest(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, newUser())
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx))
	assert.False(t, f.svc.Session().Authenticated)

	var last LastUser
	assert.ErrorIs(t, f.local.Load(ctx, kvstore.LastUserKey, &last), errors.ErrNotFound)

	_, err = f.svc.Login(ctx, "alice123", "Wrong1234")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	assert.False(t, f.svc.Session().Authenticated)

	u, err := f.svc.Login(ctx, "alice123", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice123", u.Username)
	assert.True(t, f.svc.Session().Authenticated)
}

func TestAccountService_Restore(t *testing.T) {
	for _, scheme := range []credentials.Scheme{credentials.Plaintext{}, credentials.Argon2id{}} {
		t.Run(fmt.Sprintf("%T", scheme), func(t *testing.T) {
			f := setupAccountTest(t, scheme)
			ctx := context.Background()

			_, err := f.svc.Register(ctx, newUser())
			require.NoError(t, err)

			// A fresh process sharing the same stores.
			fresh := NewAccountService(f.repo, session.New(f.local, nil), f.local, nil)
			u, err := fresh.Restore(ctx)
			require.NoError(t, err)
			assert.Equal(t, "alice123", u.Username)
			assert.True(t, fresh.Session().Authenticated)
		})
	}
}

func TestAccountService_RestoreWithoutRememberedUser(t *testing.T) {
	f := setupAccountTest(t, nil)

	_, err := f.svc.Restore(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotFound)

	noLocal := NewAccountService(f.repo, session.New(nil, nil), nil, nil)
	_, err = noLocal.Restore(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := setupAccountTest(t, credentials.Argon2id{})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, newUser())
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, "NotMine123", "Another9")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

	err = f.svc.ChangePassword(ctx, "Secret123", "weak")
	assert.ErrorIs(t, err, errors.ErrValidation)
	assert.True(t, f.svc.Session().Authenticated)

	require.NoError(t, f.svc.ChangePassword(ctx, "Secret123", "Another9"))
	assert.False(t, f.svc.Session().Authenticated, "changing the password logs out")

	_, err = f.svc.Login(ctx, "alice123", "Secret123")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "alice123", "Another9")
	assert.NoError(t, err)
}

func TestAccountService_ChangePasswordAnonymous(t *testing.T) {
	f := setupAccountTest(t, nil)

	err := f.svc.ChangePassword(context.Background(), "Secret123", "Another9")
	assert.ErrorIs(t, err, errors.ErrInvalidState)
}

func TestAccountService_ViewBook(t *testing.T) {
	f := setupAccountTest(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, newUser())
	require.NoError(t, err)

	u, err := f.svc.ViewBook(ctx, hobbit())
	require.NoError(t, err)
	require.NotNil(t, u.RecentBook)
	assert.Equal(t, domain.RecentBook{
		Title:   "The Hobbit",
		Author:  "J.R.R. Tolkien",
		ISBN:    "9780547928227",
		Subject: "fantasy",
	}, *u.RecentBook)

	// Persisted: a login reads it back from the store.
	require.NoError(t, f.svc.Logout(ctx))
	u, err = f.svc.Login(ctx, "alice123", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, u.RecentBook)
	assert.Equal(t, "The Hobbit", u.RecentBook.Title)
}

func TestAccountService_LikeAndUnlike(t *testing.T) {
	f := setupAccountTest(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, newUser())
	require.NoError(t, err)

	u, err := f.svc.Like(ctx, hobbit())
	require.NoError(t, err)
	assert.True(t, u.IsLiked("The Hobbit"))

	u, err = f.svc.Like(ctx, hobbit())
	require.NoError(t, err)
	assert.Len(t, u.LikedBooks, 1, "liking twice is a no-op")

	u, err = f.svc.Unlike(ctx, "The Hobbit")
	require.NoError(t, err)
	assert.False(t, u.IsLiked("The Hobbit"))
	assert.False(t, f.svc.Session().User.IsLiked("The Hobbit"))
}

func TestAccountService_LikeLimit(t *testing.T) {
	f := setupAccountTest(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, newUser())
	require.NoError(t, err)

	for i := range domain.MaxLikedBooks {
		_, err := f.svc.Like(ctx, &domain.Doc{Title: fmt.Sprintf("Book %d", i)})
		require.NoError(t, err)
	}

	_, err = f.svc.Like(ctx, &domain.Doc{Title: "One Too Many"})
	assert.ErrorIs(t, err, errors.ErrLikedLimit)
	assert.Equal(t, 400, errors.From(err).Status)
	assert.Len(t, f.svc.Session().User.LikedBooks, domain.MaxLikedBooks)
}

func TestAccountService_MutationsRequireLogin(t *testing.T) {
	f := setupAccountTest(t, nil)
	ctx := context.Background()

	_, err := f.svc.ViewBook(ctx, hobbit())
	assert.ErrorIs(t, err, errors.ErrInvalidState)
	_, err = f.svc.Like(ctx, hobbit())
	assert.ErrorIs(t, err, errors.ErrInvalidState)
	_, err = f.svc.Unlike(ctx, "The Hobbit")
	assert.ErrorIs(t, err, errors.ErrInvalidState)
}
