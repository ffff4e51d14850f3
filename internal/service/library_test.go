package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginalia-app/marginalia-server/internal/cache"
	"github.com/marginalia-app/marginalia-server/internal/errors"
	"github.com/marginalia-app/marginalia-server/internal/store"
)

func setupLibraryService(t *testing.T) (*LibraryService, *cache.Cache) {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	c := newTestCache(t)
	return NewLibraryService(st, c, nil), c
}

func TestLibraryService_AddBook(t *testing.T) {
	svc, _ := setupLibraryService(t)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, "user-1", AddBookInput{
		Title:      "Dune",
		Author:     "Frank Herbert",
		CoverURL:   "https://covers.openlibrary.org/b/id/1-M.jpg",
		ExternalID: "/works/OL1W",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "user-1", book.OwnerID)
	assert.WithinDuration(t, time.Now(), book.AddedAt, time.Minute)

	books, err := svc.ListBooks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book.ID, books[0].ID)
}

func TestLibraryService_AddBook_EmptyTitle(t *testing.T) {
	svc, _ := setupLibraryService(t)

	_, err := svc.AddBook(context.Background(), "user-1", AddBookInput{Title: "   "})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestLibraryService_AddBook_Duplicate(t *testing.T) {
	svc, _ := setupLibraryService(t)
	ctx := context.Background()

	input := AddBookInput{Title: "Dune", ExternalID: "/works/OL1W"}
	_, err := svc.AddBook(ctx, "user-1", input)
	require.NoError(t, err)

	_, err = svc.AddBook(ctx, "user-1", input)
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestLibraryService_AddBook_InvalidatesRecommendations(t *testing.T) {
	svc, c := setupLibraryService(t)
	ctx := context.Background()

	// A stale cached set for this user, and a fresh one for another user.
	c.Set(cache.RecommendationsKey("user-1"), "stale", time.Hour)
	c.Set(cache.RecommendationsKey("user-2"), "other", time.Hour)

	_, err := svc.AddBook(ctx, "user-1", AddBookInput{Title: "Dune", ExternalID: "/works/OL1W"})
	require.NoError(t, err)

	_, ok := c.Get(cache.RecommendationsKey("user-1"))
	assert.False(t, ok, "adding a library book must invalidate the owner's recommendations")

	_, ok = c.Get(cache.RecommendationsKey("user-2"))
	assert.True(t, ok, "other users' recommendations stay cached")
}
