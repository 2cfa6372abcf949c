package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfwise/internal/config"
	"github.com/listenupapp/shelfwise/internal/covers"
	"github.com/listenupapp/shelfwise/internal/credentials"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/openlibrary"
	"github.com/listenupapp/shelfwise/internal/repository"
	"github.com/listenupapp/shelfwise/internal/service"
	"github.com/listenupapp/shelfwise/internal/session"
)

// ProvideCredentialScheme provides the password scheme for stored users.
func ProvideCredentialScheme(i do.Injector) (credentials.Scheme, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return credentials.ForName(cfg.Users.CredentialScheme)
}

// ProvideRepository provides the user repository.
func ProvideRepository(i do.Injector) (*repository.Repository, error) {
	cfg := do.MustInvoke[*config.Config](i)
	docs := do.MustInvoke[*DocStoreHandle](i)
	scheme := do.MustInvoke[credentials.Scheme](i)
	log := do.MustInvoke[*logger.Logger](i)

	return repository.New(docs.Store, scheme, repository.Config{
		ScanConcurrency: cfg.Users.ScanConcurrency,
	}, log.Logger), nil
}

// ProvideSession provides the process-wide session.
func ProvideSession(i do.Injector) (*session.Session, error) {
	local := do.MustInvoke[*LocalStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return session.New(local.Store, log.WithComponent("session")), nil
}

// ProvideAccountService provides the account service.
func ProvideAccountService(i do.Injector) (*service.AccountService, error) {
	repo := do.MustInvoke[*repository.Repository](i)
	sess := do.MustInvoke[*session.Session](i)
	local := do.MustInvoke[*LocalStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAccountService(repo, sess, local.Store, log.Logger), nil
}

// ProvideLibraryService provides the book browsing service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	books := do.MustInvoke[*openlibrary.Client](i)
	fetcher := do.MustInvoke[*covers.Fetcher](i)
	sess := do.MustInvoke[*session.Session](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(books, fetcher, sess, log.Logger), nil
}
