package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/search"
)

// localSearcher is the slice of the search index discovery needs.
// Implemented by search.SearchIndex.
type localSearcher interface {
	SearchBooks(ctx context.Context, query, ownerID string) ([]search.BookHit, error)
	SearchNotes(ctx context.Context, query, ownerID string) ([]search.NoteHit, error)
}

// recommendationSource provides personalized picks for a user.
// Implemented by RecommendationEngine.
type recommendationSource interface {
	Recommend(ctx context.Context, userID string) (*domain.RecommendationSet, error)
}

// trendingSource provides the browsing panels.
// Implemented by TrendingService.
type trendingSource interface {
	Trending(ctx context.Context) (*domain.TrendingPanel, error)
}

// DiscoveryResult is the composite response of a discovery search.
// Sections are independent: a failed source leaves its section empty and adds
// one message to Errors instead of failing the request.
type DiscoveryResult struct {
	Catalog         []domain.Book         `json:"catalog"`
	Books           []search.BookHit      `json:"books"`
	Notes           []search.NoteHit      `json:"notes"`
	Recommendations []domain.Book         `json:"recommendations"`
	Trending        *domain.TrendingPanel `json:"trending"`
	Errors          []string              `json:"errors"`
}

// DiscoveryService fans a query out to the catalog, the user's own books and
// notes, their recommendations, and the trending panels, concurrently, and
// composes whatever came back.
type DiscoveryService struct {
	catalog     catalogSource
	local       localSearcher
	recommender recommendationSource
	trending    trendingSource
	logger      *slog.Logger
}

// NewDiscoveryService creates a new discovery service.
func NewDiscoveryService(catalog catalogSource, local localSearcher, recommender recommendationSource, trending trendingSource, logger *slog.Logger) *DiscoveryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoveryService{
		catalog:     catalog,
		local:       local,
		recommender: recommender,
		trending:    trending,
		logger:      logger,
	}
}

// Search runs the discovery fan-out. Which sources run depends on the input:
// catalog and local search need a non-empty query, local search and
// recommendations need a user, trending always runs. A blank query or missing
// user leaves the gated sections empty without adding an error. Source
// failures degrade into the result's Errors list.
func (s *DiscoveryService) Search(ctx context.Context, userID, query string) (*DiscoveryResult, error) {
	query = strings.TrimSpace(query)

	result := &DiscoveryResult{
		Catalog:         []domain.Book{},
		Books:           []search.BookHit{},
		Notes:           []search.NoteHit{},
		Recommendations: []domain.Book{},
		Errors:          []string{},
	}

	var mu sync.Mutex
	degrade := func(source, message string, err error) {
		s.logger.Warn("discovery source failed, degrading",
			"source", source,
			"query", query,
			"error", err,
		)
		mu.Lock()
		result.Errors = append(result.Errors, message)
		mu.Unlock()
	}

	// Plain errgroup, no shared context cancellation: one slow or failing
	// source must not cancel the others.
	var g errgroup.Group

	if query != "" {
		g.Go(func() error {
			books, err := s.catalog.Search(ctx, query)
			if err != nil {
				degrade("catalog", "catalog search unavailable", err)
				return nil
			}
			result.Catalog = books
			return nil
		})
	}

	if query != "" && userID != "" {
		g.Go(func() error {
			hits, err := s.local.SearchBooks(ctx, query, userID)
			if err != nil {
				degrade("library", "library search unavailable", err)
				return nil
			}
			result.Books = hits
			return nil
		})

		g.Go(func() error {
			hits, err := s.local.SearchNotes(ctx, query, userID)
			if err != nil {
				degrade("notes", "notes search unavailable", err)
				return nil
			}
			result.Notes = hits
			return nil
		})
	}

	if userID != "" {
		g.Go(func() error {
			set, err := s.recommender.Recommend(ctx, userID)
			if err != nil {
				degrade("recommendations", "recommendations unavailable", err)
				return nil
			}
			if set != nil && set.Books != nil {
				result.Recommendations = set.Books
			}
			return nil
		})
	}

	g.Go(func() error {
		panel, err := s.trending.Trending(ctx)
		if err != nil {
			degrade("trending", "trending unavailable", err)
			return nil
		}
		result.Trending = panel
		return nil
	})

	_ = g.Wait()

	return result, nil
}
