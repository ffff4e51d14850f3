package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/marginalia-app/marginalia-server/internal/cache"
	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/errors"
)

// MaxRecommendations caps the recommendation list per user.
const MaxRecommendations = 10

// SignalSource supplies the per-user taste signals and library membership the
// engine works from. Implemented by the store.
type SignalSource interface {
	TopTags(ctx context.Context, ownerID string, k int) ([]domain.Signal, error)
	TopAuthors(ctx context.Context, ownerID string, k int) ([]domain.Signal, error)
	ListLibraryExternalIDs(ctx context.Context, ownerID string) (map[string]struct{}, error)
}

// catalogSource is the cached catalog lookup the engine queries per signal.
// Implemented by CatalogService, so signal queries share the search cache.
type catalogSource interface {
	Search(ctx context.Context, query string) ([]domain.Book, error)
}

// RecommendationEngine builds per-user book recommendations from the user's
// note tags and library authors.
//
// Signals are ordered: the top tags come first, then the top authors. The
// engine queries the catalog one signal at a time and stops as soon as the
// list is full, so later signals cost nothing when earlier ones suffice.
type RecommendationEngine struct {
	signals     SignalSource
	catalog     catalogSource
	cache       *cache.Cache
	ttl         time.Duration
	signalCount int
	logger      *slog.Logger
}

// RecommendationEngineOptions configures a RecommendationEngine.
type RecommendationEngineOptions struct {
	Signals     SignalSource
	Catalog     catalogSource
	Cache       *cache.Cache
	TTL         time.Duration // defaults to 24h
	SignalCount int           // top tags and top authors each, defaults to 3
	Logger      *slog.Logger
}

// NewRecommendationEngine creates a new recommendation engine.
func NewRecommendationEngine(opts RecommendationEngineOptions) *RecommendationEngine {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	signalCount := opts.SignalCount
	if signalCount <= 0 {
		signalCount = 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationEngine{
		signals:     opts.Signals,
		catalog:     opts.Catalog,
		cache:       opts.Cache,
		ttl:         ttl,
		signalCount: signalCount,
		logger:      logger,
	}
}

// Recommend returns up to MaxRecommendations catalog books for the user,
// from cache when a fresh set exists. A user with no signals (no tagged notes
// and no library authors) gets an empty set, and nothing is cached for them,
// so their first note or book takes effect immediately.
func (e *RecommendationEngine) Recommend(ctx context.Context, userID string) (*domain.RecommendationSet, error) {
	key := cache.RecommendationsKey(userID)
	if set, ok := cache.GetJSON[domain.RecommendationSet](e.cache, key); ok {
		e.logger.Debug("recommendations served from cache", "user_id", userID, "count", len(set.Books))
		return &set, nil
	}

	signals, err := e.gatherSignals(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := &domain.RecommendationSet{
		UserID:      userID,
		Books:       []domain.Book{},
		GeneratedAt: time.Now(),
	}

	if len(signals) == 0 {
		e.logger.Debug("no recommendation signals for user", "user_id", userID)
		return set, nil
	}

	owned, err := e.signals.ListLibraryExternalIDs(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load library for recommendations")
	}

	seen := make(map[string]struct{})
	queriesFailed := 0

	for _, signal := range signals {
		if len(set.Books) >= MaxRecommendations {
			break
		}

		books, err := e.catalog.Search(ctx, signal.Value)
		if err != nil {
			// One bad signal query must not sink the whole set.
			queriesFailed++
			e.logger.Warn("recommendation signal query failed",
				"user_id", userID,
				"signal", signal.Value,
				"error", err,
			)
			continue
		}

		for _, book := range books {
			if len(set.Books) >= MaxRecommendations {
				break
			}
			if book.ExternalID == "" {
				continue
			}
			if _, ok := seen[book.ExternalID]; ok {
				continue
			}
			if _, ok := owned[book.ExternalID]; ok {
				continue
			}
			seen[book.ExternalID] = struct{}{}
			set.Books = append(set.Books, book)
		}
	}

	// An empty set caused purely by upstream failures is not worth pinning
	// for a whole TTL window.
	if len(set.Books) > 0 || queriesFailed < len(signals) {
		e.cache.Set(key, set, e.ttl)
	}

	e.logger.Info("recommendations generated",
		"user_id", userID,
		"signals", len(signals),
		"count", len(set.Books),
	)
	return set, nil
}

// gatherSignals collects the user's top note tags followed by their top
// library authors. Tags lead because they express interest more directly
// than ownership does.
func (e *RecommendationEngine) gatherSignals(ctx context.Context, userID string) ([]domain.Signal, error) {
	tags, err := e.signals.TopTags(ctx, userID, e.signalCount)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load tag signals")
	}

	authors, err := e.signals.TopAuthors(ctx, userID, e.signalCount)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load author signals")
	}

	return append(tags, authors...), nil
}
