package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/marginalia-app/marginalia-server/internal/config"
	"github.com/marginalia-app/marginalia-server/internal/logger"
	"github.com/marginalia-app/marginalia-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the local full-text search index, wired into the
// store so every book and note mutation updates it synchronously.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(cfg.Data.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	// A discarded index (mapping change, corruption) is rebuilt from the
	// persisted records before the server starts taking requests.
	if index.WasRebuilt() {
		log.Info("Rebuilding search index from store")
		if err := storeHandle.ReindexAll(context.Background()); err != nil {
			_ = index.Close() //nolint:errcheck // Reindex failure is the error that matters
			return nil, err
		}
	}

	return &SearchIndexHandle{SearchIndex: index}, nil
}
