// Package service contains the application services that compose the store,
// search index, response cache, and catalog client into the discovery API.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/marginalia-app/marginalia-server/internal/cache"
	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/errors"
	"github.com/marginalia-app/marginalia-server/internal/metadata/openlibrary"
)

// CatalogSearcher is the slice of the Open Library client the services need.
type CatalogSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Book, error)
}

// CatalogService wraps the Open Library client with a read-through response
// cache. Identical queries inside the TTL window are served from the cache
// without touching the upstream.
type CatalogService struct {
	catalog   CatalogSearcher
	cache     *cache.Cache
	searchTTL time.Duration
	logger    *slog.Logger
}

// CatalogServiceOptions configures a CatalogService.
type CatalogServiceOptions struct {
	Catalog   CatalogSearcher
	Cache     *cache.Cache
	SearchTTL time.Duration // defaults to 1h
	Logger    *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(opts CatalogServiceOptions) *CatalogService {
	ttl := opts.SearchTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		catalog:   opts.Catalog,
		cache:     opts.Cache,
		searchTTL: ttl,
		logger:    logger,
	}
}

// Search returns catalog books for the query, from cache when fresh.
// An empty or whitespace-only query is a validation error. Upstream failures
// surface as upstream-coded errors so callers can degrade instead of failing
// the whole request.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Validation("search query must not be empty")
	}

	key := cache.SearchKey(query)
	if books, ok := cache.GetJSON[[]domain.Book](s.cache, key); ok {
		s.logger.Debug("catalog search served from cache", "query", query, "results", len(books))
		return books, nil
	}

	books, err := s.catalog.Search(ctx, query, openlibrary.MaxResults)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeUpstream, "catalog search %q failed", query)
	}

	s.cache.Set(key, books, s.searchTTL)
	s.logger.Debug("catalog search fetched from upstream", "query", query, "results", len(books))
	return books, nil
}
