package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/kvstore"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/repository"
	"github.com/listenupapp/shelfwise/internal/session"
)

// LastUser is what the device remembers for automatic login.
type LastUser struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Handle   docstore.Handle `json:"handle,omitempty"`
}

// AccountService drives registration, login and profile changes for the
// single user of the process.
type AccountService struct {
	repo    *repository.Repository
	session *session.Session
	local   session.LastUserStore

	// mu serializes account operations and guards hint.
	mu   sync.Mutex
	hint repository.Hint

	logger *slog.Logger
}

// NewAccountService creates an account service. local may be nil, which
// disables remembering the last user.
func NewAccountService(
	repo *repository.Repository,
	sess *session.Session,
	local session.LastUserStore,
	log *slog.Logger,
) *AccountService {
	return &AccountService{
		repo:    repo,
		session: sess,
		local:   local,
		logger:  logger.OrDiscard(log).With("component", "account"),
	}
}

// Session returns the current session snapshot.
func (s *AccountService) Session() session.State {
	return s.session.State()
}

// Register stores a new user and logs it in.
// It is rejected while a user is logged in.
func (s *AccountService) Register(ctx context.Context, candidate *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Authenticated() {
		return nil, errors.AlreadyAuthenticated("log out before registering a new user")
	}

	user, hint, err := s.repo.Register(ctx, s.hint, candidate)
	s.hint = hint
	if err != nil {
		return nil, err
	}

	s.session.Login(user)
	s.remember(ctx, user.Username, candidate.Password)
	return user.Clone(), nil
}

// Login authenticates and replaces the session user.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.login(ctx, s.hint, username, password)
}

// Restore logs in with the credentials remembered on the device.
// It fails with errors.ErrNotFound when nothing is remembered.
func (s *AccountService) Restore(ctx context.Context) (*domain.User, error) {
	if s.local == nil {
		return nil, errors.NotFound("no remembered user")
	}

	var last LastUser
	if err := s.local.Load(ctx, kvstore.LastUserKey, &last); err != nil {
		return nil, errors.From(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hint := s.hint
	if !hint.Present() && last.Handle != "" {
		hint = repository.HintAt(last.Handle)
	}
	return s.login(ctx, hint, last.Username, last.Password)
}

func (s *AccountService) login(ctx context.Context, hint repository.Hint, username, password string) (*domain.User, error) {
	user, hint, err := s.repo.Login(ctx, hint, username, password)
	s.hint = hint
	if err != nil {
		return nil, err
	}

	s.session.Login(user)
	s.remember(ctx, username, password)
	return user.Clone(), nil
}

// Logout clears the session and forgets the remembered user.
func (s *AccountService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.Logout(ctx)
}

// ChangePassword replaces the password after confirming the current one,
// then logs out.
func (s *AccountService) ChangePassword(ctx context.Context, confirmation, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.session.User()
	if user == nil {
		return errors.InvalidState("no authenticated user")
	}
	if !s.repo.Verify(user, confirmation) {
		return errors.InvalidCredentials()
	}
	if err := s.repo.SetPassword(user, newPassword); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, s.hint, user); err != nil {
		return err
	}

	s.logger.Info("password changed", "username", user.Username)
	return s.session.Logout(ctx)
}

// ViewBook records doc as the user's most recent book.
func (s *AccountService) ViewBook(ctx context.Context, doc *domain.Doc) (*domain.User, error) {
	return s.mutate(ctx, func(u *domain.User) (bool, error) {
		return u.ViewBook(doc), nil
	})
}

// Like adds doc to the liked list.
// It fails with errors.ErrLikedLimit when the list is full.
func (s *AccountService) Like(ctx context.Context, doc *domain.Doc) (*domain.User, error) {
	return s.mutate(ctx, func(u *domain.User) (bool, error) {
		if u.IsLiked(doc.Title) {
			return false, nil
		}
		if !u.CanLike() {
			return false, errors.LikedLimit(domain.MaxLikedBooks)
		}
		return u.Like(doc), nil
	})
}

// Unlike removes every liked book titled title.
func (s *AccountService) Unlike(ctx context.Context, title string) (*domain.User, error) {
	return s.mutate(ctx, func(u *domain.User) (bool, error) {
		return u.Unlike(title), nil
	})
}

// mutate applies fn to a copy of the session user. When fn reports a
// change the session is updated first and the record persisted after.
func (s *AccountService) mutate(ctx context.Context, fn func(u *domain.User) (bool, error)) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.session.User()
	if user == nil {
		return nil, errors.InvalidState("no authenticated user")
	}

	changed, err := fn(user)
	if err != nil {
		return nil, err
	}
	if !changed {
		return user, nil
	}

	s.session.Login(user)
	if err := s.repo.Update(ctx, s.hint, user); err != nil {
		s.logger.Warn("failed to persist user change", "username", user.Username, "error", err)
		return nil, err
	}
	return user.Clone(), nil
}

// remember stores the login on the device. Failures are logged only.
func (s *AccountService) remember(ctx context.Context, username, password string) {
	if s.local == nil {
		return
	}
	last := LastUser{Username: username, Password: password, Handle: s.hint.Handle}
	if err := s.local.Save(ctx, kvstore.LastUserKey, last); err != nil {
		s.logger.Warn("failed to remember last user", "username", username, "error", err)
	}
}
