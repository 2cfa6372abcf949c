package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfwise/internal/config"
	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/docstore/badgerstore"
	"github.com/listenupapp/shelfwise/internal/docstore/httpstore"
	"github.com/listenupapp/shelfwise/internal/docstore/s3store"
	"github.com/listenupapp/shelfwise/internal/docstore/sqlitestore"
	"github.com/listenupapp/shelfwise/internal/kvstore"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/request"
)

// DocStoreHandle wraps the configured document store with shutdown capability.
type DocStoreHandle struct {
	docstore.Store
	Backend string
	close   func() error
}

// Shutdown implements do.Shutdownable.
func (h *DocStoreHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideDocStore provides the user document store selected by configuration.
func ProvideDocStore(i do.Injector) (*DocStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeLog := log.WithComponent("docstore")

	ds := cfg.DocStore
	switch ds.Backend {
	case config.BackendHTTP:
		// The Open Library limiter does not apply to the store host.
		engine := request.New(request.Config{
			Timeout:   cfg.Request.Timeout,
			UserAgent: cfg.Request.UserAgent,
		}, log.WithComponent("request"))
		log.Info("Document store ready", "backend", ds.Backend, "url", ds.URL)
		return &DocStoreHandle{
			Store:   httpstore.New(engine, ds.URL, ds.APIKey, storeLog),
			Backend: ds.Backend,
		}, nil

	case config.BackendSQLite:
		db, err := sqlitestore.Open(ds.Path, storeLog)
		if err != nil {
			return nil, fmt.Errorf("open sqlite docstore: %w", err)
		}
		log.Info("Document store ready", "backend", ds.Backend, "path", ds.Path)
		return &DocStoreHandle{Store: db, Backend: ds.Backend, close: db.Close}, nil

	case config.BackendBadger:
		db, err := badgerstore.Open(ds.Path, storeLog)
		if err != nil {
			return nil, fmt.Errorf("open badger docstore: %w", err)
		}
		log.Info("Document store ready", "backend", ds.Backend, "path", ds.Path)
		return &DocStoreHandle{Store: db, Backend: ds.Backend, close: db.Close}, nil

	case config.BackendS3:
		s, err := s3store.New(context.Background(), s3store.Config{
			Bucket:    ds.S3Bucket,
			Prefix:    ds.S3Prefix,
			Region:    ds.S3Region,
			Endpoint:  ds.S3Endpoint,
			AccessKey: ds.S3AccessKey,
			SecretKey: ds.S3SecretKey,
		}, storeLog)
		if err != nil {
			return nil, fmt.Errorf("open s3 docstore: %w", err)
		}
		log.Info("Document store ready", "backend", ds.Backend, "bucket", ds.S3Bucket, "prefix", ds.S3Prefix)
		return &DocStoreHandle{Store: s, Backend: ds.Backend}, nil
	}

	return nil, fmt.Errorf("unknown docstore backend: %s", ds.Backend)
}

// LocalStoreHandle wraps the on-device key-value store with shutdown capability.
type LocalStoreHandle struct {
	*kvstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *LocalStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideLocalStore provides the on-device key-value store.
func ProvideLocalStore(i do.Injector) (*LocalStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	kv, err := kvstore.Open(cfg.Local.Path, log.WithComponent("kvstore"))
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	log.Info("Local state initialized", "path", cfg.Local.Path)

	return &LocalStoreHandle{Store: kv}, nil
}
