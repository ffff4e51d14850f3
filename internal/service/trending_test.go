package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

// allResultsCatalog answers every query with the same fixed book list.
type allResultsCatalog struct {
	books []domain.Book
	errs  map[string]error
}

func (f *allResultsCatalog) Search(_ context.Context, query string) ([]domain.Book, error) {
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.books, nil
}

func TestTrending_SamplesEachPanel(t *testing.T) {
	catalog := &allResultsCatalog{books: booksFor("t", 2)}
	svc := NewTrendingService(catalog, 3, nil)

	panel, err := svc.Trending(context.Background())
	require.NoError(t, err)

	assert.Len(t, panel.Authors, 3)
	assert.Len(t, panel.Genres, 3)
	assert.Len(t, panel.Topics, 3)

	for _, entry := range panel.Authors {
		assert.Contains(t, trendingAuthors, entry.Name)
		assert.Len(t, entry.Books, 2)
	}
}

func TestTrending_CapsBooksPerSlot(t *testing.T) {
	catalog := &allResultsCatalog{books: booksFor("t", 9)}
	svc := NewTrendingService(catalog, 2, nil)

	panel, err := svc.Trending(context.Background())
	require.NoError(t, err)

	for _, entries := range [][]domain.TrendingEntry{panel.Authors, panel.Genres, panel.Topics} {
		for _, entry := range entries {
			assert.LessOrEqual(t, len(entry.Books), maxTrendingBooks)
		}
	}
}

func TestTrending_FailedSlotKeepsName(t *testing.T) {
	// Oversized slot count samples every pool entry, making the run deterministic.
	catalog := &allResultsCatalog{
		books: booksFor("t", 1),
		errs:  map[string]error{"science fiction": assert.AnError},
	}
	svc := NewTrendingService(catalog, 100, nil)

	panel, err := svc.Trending(context.Background())
	require.NoError(t, err)

	assert.Len(t, panel.Authors, len(trendingAuthors))
	assert.Len(t, panel.Genres, len(trendingGenres), "a failed slot stays in its panel")
	assert.Len(t, panel.Topics, len(trendingTopics))

	var failed *domain.TrendingEntry
	for i := range panel.Genres {
		if panel.Genres[i].Name == "science fiction" {
			failed = &panel.Genres[i]
		}
	}
	require.NotNil(t, failed)
	assert.Empty(t, failed.Books)
	assert.NotNil(t, failed.Books, "failed slots carry an empty list, not null")
}

func TestSamplePool(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e"}

	sampled := samplePool(pool, 3)
	assert.Len(t, sampled, 3)

	seen := make(map[string]bool)
	for _, name := range sampled {
		assert.Contains(t, pool, name)
		assert.False(t, seen[name], "samples must be distinct")
		seen[name] = true
	}

	// Asking for more than the pool holds returns the whole pool.
	assert.Len(t, samplePool(pool, 10), len(pool))
}
