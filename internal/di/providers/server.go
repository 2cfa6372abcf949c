package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfwise/internal/api"
	"github.com/listenupapp/shelfwise/internal/config"
	"github.com/listenupapp/shelfwise/internal/docstore/server"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the application API server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Account: do.MustInvoke[*service.AccountService](i),
		Library: do.MustInvoke[*service.LibraryService](i),
	}

	handler := api.NewServer(services, api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, log.Logger)

	return serve(cfg, handler, log), nil
}

// ProvideDocStoreServer provides the document store HTTP service. It serves
// a local backend so that api processes can share it over the http backend.
func ProvideDocStoreServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.DocStore.Backend == config.BackendHTTP {
		return nil, errors.New("docstore server needs a local backend (sqlite, badger or s3)")
	}
	if cfg.DocStore.APIKey == "" {
		return nil, errors.New("DOCSTORE_API_KEY is required to serve documents")
	}

	docs := do.MustInvoke[*DocStoreHandle](i)
	handler := server.New(docs.Store, cfg.DocStore.APIKey, log.WithComponent("docstore-server"))

	return serve(cfg, handler, log), nil
}

func serve(cfg *config.Config, handler http.Handler, log *logger.Logger) *HTTPServerHandle {
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}
}
