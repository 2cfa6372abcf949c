// Package di provides dependency injection configuration for shelfwise.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfwise/internal/config"
	"github.com/listenupapp/shelfwise/internal/covers"
	"github.com/listenupapp/shelfwise/internal/credentials"
	"github.com/listenupapp/shelfwise/internal/di/providers"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/openlibrary"
	"github.com/listenupapp/shelfwise/internal/repository"
	"github.com/listenupapp/shelfwise/internal/request"
	"github.com/listenupapp/shelfwise/internal/service"
	"github.com/listenupapp/shelfwise/internal/session"
)

func newCore() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideRequestEngine)

	// Storage layer
	do.Provide(injector, providers.ProvideDocStore)

	return injector
}

// NewContainer creates and configures the DI container for the API server.
func NewContainer() *do.RootScope {
	injector := newCore()

	do.Provide(injector, providers.ProvideLocalStore)

	// Remote clients
	do.Provide(injector, providers.ProvideOpenLibrary)
	do.Provide(injector, providers.ProvideCoverFetcher)

	// Users
	do.Provide(injector, providers.ProvideCredentialScheme)
	do.Provide(injector, providers.ProvideRepository)
	do.Provide(injector, providers.ProvideSession)

	// Business services
	do.Provide(injector, providers.ProvideAccountService)
	do.Provide(injector, providers.ProvideLibraryService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// NewDocStoreContainer creates the DI container for the document store service.
func NewDocStoreContainer() *do.RootScope {
	injector := newCore()
	do.Provide(injector, providers.ProvideDocStoreServer)
	return injector
}

// Bootstrap initializes the API server and its dependencies.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*request.Engine](injector)

	// Fail fast on storage problems instead of on the first request.
	if _, err := do.Invoke[*providers.DocStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LocalStoreHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*openlibrary.Client](injector)
	_ = do.MustInvoke[*covers.Fetcher](injector)
	if _, err := do.Invoke[credentials.Scheme](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*repository.Repository](injector)
	_ = do.MustInvoke[*session.Session](injector)

	// Business services
	_ = do.MustInvoke[*service.AccountService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}

// BootstrapDocStore initializes the document store service.
func BootstrapDocStore(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.DocStoreHandle](injector); err != nil {
		return err
	}
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
