package providers

import (
	"github.com/samber/do/v2"

	"github.com/marginalia-app/marginalia-server/internal/config"
	"github.com/marginalia-app/marginalia-server/internal/logger"
	"github.com/marginalia-app/marginalia-server/internal/metadata/openlibrary"
	"github.com/marginalia-app/marginalia-server/internal/service"
)

// ProvideCatalogClient provides the rate-limited Open Library client.
func ProvideCatalogClient(i do.Injector) (*openlibrary.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := openlibrary.New(openlibrary.Options{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
		Logger:  log.Logger,
	})

	return client, nil
}

// ProvideCatalogService provides the cached catalog search service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*openlibrary.Client](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	return service.NewCatalogService(service.CatalogServiceOptions{
		Catalog:   client,
		Cache:     cacheHandle.Cache,
		SearchTTL: cfg.Cache.SearchTTL,
		Logger:    log.Logger,
	}), nil
}
