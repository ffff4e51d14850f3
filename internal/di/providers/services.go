package providers

import (
	"github.com/samber/do/v2"

	"github.com/marginalia-app/marginalia-server/internal/config"
	"github.com/marginalia-app/marginalia-server/internal/logger"
	"github.com/marginalia-app/marginalia-server/internal/service"
)

// ProvideLibraryService provides the library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, cacheHandle.Cache, log.Logger), nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, log.Logger), nil
}

// ProvideDiscoveryService provides the composite discovery search service.
func ProvideDiscoveryService(i do.Injector) (*service.DiscoveryService, error) {
	catalogService := do.MustInvoke[*service.CatalogService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	engine := do.MustInvoke[*service.RecommendationEngine](i)
	trending := do.MustInvoke[*service.TrendingService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDiscoveryService(catalogService, indexHandle.SearchIndex, engine, trending, log.Logger), nil
}

// ProvideRecommendationEngine provides the recommendation engine.
func ProvideRecommendationEngine(i do.Injector) (*service.RecommendationEngine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecommendationEngine(service.RecommendationEngineOptions{
		Signals:     storeHandle.Store,
		Catalog:     catalogService,
		Cache:       cacheHandle.Cache,
		TTL:         cfg.Cache.RecommendationsTTL,
		SignalCount: cfg.Discovery.SignalCount,
		Logger:      log.Logger,
	}), nil
}

// ProvideTrendingService provides the trending panel service.
func ProvideTrendingService(i do.Injector) (*service.TrendingService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTrendingService(catalogService, cfg.Discovery.TrendingSlots, log.Logger), nil
}
