// Package repository implements a user database on top of a document store
// that has no query capability.
//
// Lookups are linear scans: every handle is listed and every document read.
// A Hint remembers where the current user's document lives so the common
// path (re-login, profile update) skips the scan. Hints are always
// revalidated by reading the document and comparing the username.
package repository

import (
	"context"
	"encoding/json/v2"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/shelfwise/internal/credentials"
	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/validation"
)

// DefaultScanConcurrency bounds parallel document reads during a scan.
const DefaultScanConcurrency = 8

// Hint is the possibly absent handle of the last known user document.
// The zero value is an absent hint.
type Hint struct {
	Handle docstore.Handle
}

// NoHint is the absent hint.
var NoHint = Hint{}

// HintAt returns a hint pointing at h.
func HintAt(h docstore.Handle) Hint {
	return Hint{Handle: h}
}

// Present reports whether the hint points at a document.
func (h Hint) Present() bool {
	return h.Handle != ""
}

// Config tunes the repository.
type Config struct {
	ScanConcurrency int
}

// Repository stores users as documents.
type Repository struct {
	store       docstore.Store
	scheme      credentials.Scheme
	validator   *validation.Validator
	concurrency int
	logger      *slog.Logger
}

// New creates a repository. A nil scheme means plaintext.
func New(store docstore.Store, scheme credentials.Scheme, cfg Config, log *slog.Logger) *Repository {
	if scheme == nil {
		scheme = credentials.Plaintext{}
	}
	concurrency := cfg.ScanConcurrency
	if concurrency <= 0 {
		concurrency = DefaultScanConcurrency
	}
	return &Repository{
		store:       store,
		scheme:      scheme,
		validator:   validation.New(),
		concurrency: concurrency,
		logger:      logger.OrDiscard(log).With("component", "repository"),
	}
}

// Register creates a user document for candidate.
//
// It fails with errors.ErrDuplicate, without writing, when any stored user
// already has the same username or email. If any stored document could not
// be read it fails with that read error, also without writing. On success it
// returns the stored record and a hint at the new document.
func (r *Repository) Register(ctx context.Context, hint Hint, candidate *domain.User) (*domain.User, Hint, error) {
	if candidate == nil {
		return nil, hint, errors.Validation("user is required")
	}
	if err := r.validator.Validate(candidate); err != nil {
		return nil, hint, err
	}

	res, err := r.scan(ctx)
	if err != nil {
		return nil, hint, err
	}
	for _, su := range res.users {
		if su.user.Username == candidate.Username || su.user.Email == candidate.Email {
			r.logger.Info("registration rejected, user exists", "username", candidate.Username)
			return nil, hint, errors.Duplicate("username or email already registered")
		}
	}
	// An unread document may hold the same username or email.
	if res.unresolved != nil {
		r.logger.Warn("registration aborted, store incompletely read",
			"username", candidate.Username, "error", res.unresolved)
		return nil, hint, res.unresolved
	}

	record := candidate.Clone()
	sealed, err := r.scheme.Seal(candidate.Password)
	if err != nil {
		return nil, hint, errors.From(err)
	}
	record.Password = sealed

	data, err := encode(record)
	if err != nil {
		return nil, hint, err
	}
	h, err := r.store.Create(ctx, data)
	if err != nil {
		return nil, hint, errors.From(err)
	}

	r.logger.Info("user registered", "username", record.Username, "handle", h)
	return record, HintAt(h), nil
}

// Login finds the user named username and checks password.
//
// A present hint is tried first; if it still holds username the store is
// never listed. Unknown users and wrong passwords fail with the same
// errors.ErrInvalidCredentials, unless the scan left documents unread, in
// which case the first read error is returned. On failure the given hint is
// returned unchanged.
func (r *Repository) Login(ctx context.Context, hint Hint, username, password string) (*domain.User, Hint, error) {
	if hint.Present() {
		if u, ok := r.tryHint(ctx, hint, username); ok {
			if !r.scheme.Match(u.Password, password) {
				return nil, hint, errors.InvalidCredentials()
			}
			r.logger.Debug("login via hint", "username", username)
			return u, hint, nil
		}
	}

	res, err := r.scan(ctx)
	if err != nil {
		return nil, hint, err
	}
	for _, su := range res.users {
		if su.user.Username != username {
			continue
		}
		if !r.scheme.Match(su.user.Password, password) {
			return nil, hint, errors.InvalidCredentials()
		}
		r.logger.Debug("login via scan", "username", username, "scanned", len(res.users))
		return su.user, HintAt(su.handle), nil
	}
	if res.unresolved != nil {
		return nil, hint, res.unresolved
	}
	return nil, hint, errors.InvalidCredentials()
}

// Update writes the full user record at the hinted handle.
// It needs both a user and a present hint and writes nothing otherwise.
func (r *Repository) Update(ctx context.Context, hint Hint, user *domain.User) error {
	if user == nil || !hint.Present() {
		return errors.InvalidState("no authenticated user to update")
	}

	data, err := encode(user)
	if err != nil {
		return err
	}
	if err := r.store.Update(ctx, hint.Handle, data); err != nil {
		return errors.From(err)
	}

	r.logger.Debug("user updated", "username", user.Username, "handle", hint.Handle)
	return nil
}

// Verify reports whether password matches the stored credential of user.
func (r *Repository) Verify(user *domain.User, password string) bool {
	return user != nil && r.scheme.Match(user.Password, password)
}

// SetPassword validates password and stores its sealed form on user.
func (r *Repository) SetPassword(user *domain.User, password string) error {
	if err := r.validator.Var("password", password, "required,password"); err != nil {
		return err
	}
	sealed, err := r.scheme.Seal(password)
	if err != nil {
		return errors.From(err)
	}
	user.Password = sealed
	return nil
}

func (r *Repository) tryHint(ctx context.Context, hint Hint, username string) (*domain.User, bool) {
	u, err := r.read(ctx, hint.Handle)
	if err != nil {
		r.logger.Debug("hint unusable, scanning", "handle", hint.Handle, "error", err)
		return nil, false
	}
	if u.Username != username {
		r.logger.Debug("hint holds another user, scanning", "handle", hint.Handle)
		return nil, false
	}
	return u, true
}

type storedUser struct {
	handle docstore.Handle
	user   *domain.User
}

// scanResult holds the users a scan could decode. unresolved is the first
// read failure in list order, nil when every document was fetched.
type scanResult struct {
	users      []storedUser
	unresolved error
}

// scan reads every document in list order. Documents that cannot be read or
// decoded are logged and skipped; a failing List fails the scan. Read
// failures are reported in unresolved, decode failures are not.
func (r *Repository) scan(ctx context.Context) (scanResult, error) {
	handles, err := r.store.List(ctx)
	if err != nil {
		return scanResult{}, errors.From(err)
	}

	resolved := make([]*domain.User, len(handles))
	failed := make([]error, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, h := range handles {
		g.Go(func() error {
			u, err := r.read(gctx, h)
			if err != nil {
				r.logger.Warn("skipping unreadable user document", "handle", h, "error", err)
				if !errors.Is(err, errors.ErrDecode) {
					failed[i] = errors.From(err)
				}
				return nil
			}
			resolved[i] = u
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return scanResult{}, errors.Timeout("user scan timed out")
		}
		return scanResult{}, errors.Fetch(err)
	}

	res := scanResult{users: make([]storedUser, 0, len(handles))}
	for i, u := range resolved {
		if u != nil {
			res.users = append(res.users, storedUser{handle: handles[i], user: u})
		} else if res.unresolved == nil && failed[i] != nil {
			res.unresolved = failed[i]
		}
	}
	return res, nil
}

func (r *Repository) read(ctx context.Context, h docstore.Handle) (*domain.User, error) {
	data, err := r.store.Get(ctx, h)
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, errors.Decode(err)
	}
	return &u, nil
}

func encode(u *domain.User) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, errors.Wrap(err, errors.KeyInternal, "encode user")
	}
	return data, nil
}
