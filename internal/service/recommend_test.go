package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

// fakeSignalSource supplies canned taste signals.
type fakeSignalSource struct {
	tags    []domain.Signal
	authors []domain.Signal
	owned   map[string]struct{}
}

func (f *fakeSignalSource) TopTags(_ context.Context, _ string, k int) ([]domain.Signal, error) {
	if len(f.tags) > k {
		return f.tags[:k], nil
	}
	return f.tags, nil
}

func (f *fakeSignalSource) TopAuthors(_ context.Context, _ string, k int) ([]domain.Signal, error) {
	if len(f.authors) > k {
		return f.authors[:k], nil
	}
	return f.authors, nil
}

func (f *fakeSignalSource) ListLibraryExternalIDs(context.Context, string) (map[string]struct{}, error) {
	if f.owned == nil {
		return map[string]struct{}{}, nil
	}
	return f.owned, nil
}

// fakeCatalogService stands in for the cached catalog service.
type fakeCatalogService struct {
	mu      sync.Mutex
	results map[string][]domain.Book
	errs    map[string]error
	queries []string
}

func (f *fakeCatalogService) Search(_ context.Context, query string) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeCatalogService) queried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func booksFor(prefix string, n int) []domain.Book {
	books := make([]domain.Book, 0, n)
	for i := range n {
		books = append(books, catalogBook(
			fmt.Sprintf("/works/%s%d", prefix, i),
			fmt.Sprintf("%s book %d", prefix, i),
		))
	}
	return books
}

func newTestEngine(t *testing.T, signals SignalSource, catalog catalogSource) *RecommendationEngine {
	t.Helper()
	return NewRecommendationEngine(RecommendationEngineOptions{
		Signals: signals,
		Catalog: catalog,
		Cache:   newTestCache(t),
		TTL:     24 * time.Hour,
	})
}

func TestRecommend_NoSignals(t *testing.T) {
	c := newTestCache(t)
	engine := NewRecommendationEngine(RecommendationEngineOptions{
		Signals: &fakeSignalSource{},
		Catalog: &fakeCatalogService{},
		Cache:   c,
	})

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, set.Books)
	assert.Equal(t, "user-1", set.UserID)

	// Nothing cached: the first signal the user produces takes effect immediately.
	assert.Zero(t, c.Len())
}

func TestRecommend_TagsQueriedBeforeAuthors(t *testing.T) {
	signals := &fakeSignalSource{
		tags:    []domain.Signal{{Value: "sci-fi", Count: 3}},
		authors: []domain.Signal{{Value: "Frank Herbert", Count: 2}},
	}
	catalog := &fakeCatalogService{
		results: map[string][]domain.Book{
			"sci-fi":        booksFor("tag", 2),
			"Frank Herbert": booksFor("author", 2),
		},
	}
	engine := newTestEngine(t, signals, catalog)

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"sci-fi", "Frank Herbert"}, catalog.queried())
	require.Len(t, set.Books, 4)
	assert.Equal(t, "/works/tag0", set.Books[0].ExternalID)
}

func TestRecommend_CapAndEarlyStop(t *testing.T) {
	signals := &fakeSignalSource{
		tags: []domain.Signal{
			{Value: "sci-fi", Count: 5},
			{Value: "ecology", Count: 4},
			{Value: "politics", Count: 3},
		},
	}
	catalog := &fakeCatalogService{
		results: map[string][]domain.Book{
			"sci-fi":   booksFor("a", 7),
			"ecology":  booksFor("b", 7),
			"politics": booksFor("c", 7),
		},
	}
	engine := newTestEngine(t, signals, catalog)

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Len(t, set.Books, MaxRecommendations)
	// The first two signals fill the cap; the third query is never issued.
	assert.Equal(t, []string{"sci-fi", "ecology"}, catalog.queried())
}

func TestRecommend_DedupFirstWins(t *testing.T) {
	shared := catalogBook("/works/SHARED", "Seen twice")
	signals := &fakeSignalSource{
		tags: []domain.Signal{
			{Value: "sci-fi", Count: 2},
			{Value: "ecology", Count: 1},
		},
	}
	catalog := &fakeCatalogService{
		results: map[string][]domain.Book{
			"sci-fi":  {shared, catalogBook("/works/A", "A")},
			"ecology": {shared, catalogBook("/works/B", "B")},
		},
	}
	engine := newTestEngine(t, signals, catalog)

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, set.Books, 3)
	ids := []string{set.Books[0].ExternalID, set.Books[1].ExternalID, set.Books[2].ExternalID}
	assert.Equal(t, []string{"/works/SHARED", "/works/A", "/works/B"}, ids)
}

func TestRecommend_ExcludesLibraryBooks(t *testing.T) {
	signals := &fakeSignalSource{
		tags:  []domain.Signal{{Value: "sci-fi", Count: 1}},
		owned: map[string]struct{}{"/works/OWNED": {}},
	}
	catalog := &fakeCatalogService{
		results: map[string][]domain.Book{
			"sci-fi": {
				catalogBook("/works/OWNED", "Already mine"),
				catalogBook("/works/NEW", "New to me"),
			},
		},
	}
	engine := newTestEngine(t, signals, catalog)

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, set.Books, 1)
	assert.Equal(t, "/works/NEW", set.Books[0].ExternalID)
}

func TestRecommend_SkipsBooksWithoutExternalID(t *testing.T) {
	signals := &fakeSignalSource{
		tags: []domain.Signal{{Value: "sci-fi", Count: 1}},
	}
	catalog := &fakeCatalogService{
		results: map[string][]domain.Book{
			"sci-fi": {
				{Title: "No identity"},
				catalogBook("/works/A", "A"),
			},
		},
	}
	engine := newTestEngine(t, signals, catalog)

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, set.Books, 1)
	assert.Equal(t, "/works/A", set.Books[0].ExternalID)
}

func TestRecommend_SignalFailureDegrades(t *testing.T) {
	signals := &fakeSignalSource{
		tags: []domain.Signal{
			{Value: "sci-fi", Count: 2},
			{Value: "ecology", Count: 1},
		},
	}
	catalog := &fakeCatalogService{
		results: map[string][]domain.Book{
			"ecology": booksFor("b", 2),
		},
		errs: map[string]error{"sci-fi": assert.AnError},
	}
	engine := newTestEngine(t, signals, catalog)

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, set.Books, 2)
}

func TestRecommend_ServedFromCache(t *testing.T) {
	signals := &fakeSignalSource{
		tags: []domain.Signal{{Value: "sci-fi", Count: 1}},
	}
	catalog := &fakeCatalogService{
		results: map[string][]domain.Book{"sci-fi": booksFor("a", 3)},
	}
	engine := newTestEngine(t, signals, catalog)

	first, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)

	second, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.Books, second.Books)
	assert.Len(t, catalog.queried(), 1, "second call must be served from cache")
}

func TestRecommend_AllQueriesFailNotCached(t *testing.T) {
	signals := &fakeSignalSource{
		tags: []domain.Signal{{Value: "sci-fi", Count: 1}},
	}
	catalog := &fakeCatalogService{
		errs: map[string]error{"sci-fi": assert.AnError},
	}
	c := newTestCache(t)
	engine := NewRecommendationEngine(RecommendationEngineOptions{
		Signals: signals,
		Catalog: catalog,
		Cache:   c,
	})

	set, err := engine.Recommend(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, set.Books)
	assert.Zero(t, c.Len(), "an outage-empty set must not be pinned for the TTL")
}
