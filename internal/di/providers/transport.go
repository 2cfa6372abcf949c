package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfwise/internal/config"
	"github.com/listenupapp/shelfwise/internal/covers"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/openlibrary"
	"github.com/listenupapp/shelfwise/internal/ratelimit"
	"github.com/listenupapp/shelfwise/internal/request"
)

// ProvideRequestEngine provides the outbound HTTP engine for the Open Library
// clients. OPENLIBRARY_RPS throttles it per host.
func ProvideRequestEngine(i do.Injector) (*request.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.New(cfg.OpenLibrary.RPS, cfg.OpenLibrary.Burst)
	if limiter.Enabled() {
		log.Info("Outbound rate limiting enabled",
			"rps", cfg.OpenLibrary.RPS,
			"burst", cfg.OpenLibrary.Burst,
		)
	}

	return request.New(request.Config{
		Timeout:   cfg.Request.Timeout,
		UserAgent: cfg.Request.UserAgent,
		Limiter:   limiter,
	}, log.WithComponent("request")), nil
}

// ProvideOpenLibrary provides the book search client.
func ProvideOpenLibrary(i do.Injector) (*openlibrary.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	engine := do.MustInvoke[*request.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	return openlibrary.New(engine, openlibrary.Config{
		BaseURL:  cfg.OpenLibrary.BaseURL,
		Language: cfg.OpenLibrary.Language,
	}, log.WithComponent("openlibrary")), nil
}

// ProvideCoverFetcher provides the cover image fetcher.
func ProvideCoverFetcher(i do.Injector) (*covers.Fetcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	engine := do.MustInvoke[*request.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	return covers.New(engine, cfg.OpenLibrary.CoversURL, log.WithComponent("covers")), nil
}
