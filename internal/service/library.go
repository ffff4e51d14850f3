package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/marginalia-app/marginalia-server/internal/cache"
	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/errors"
	"github.com/marginalia-app/marginalia-server/internal/id"
	"github.com/marginalia-app/marginalia-server/internal/store"
)

// LibraryService manages a user's personal library.
type LibraryService struct {
	store  *store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(st *store.Store, c *cache.Cache, logger *slog.Logger) *LibraryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryService{
		store:  st,
		cache:  c,
		logger: logger,
	}
}

// AddBookInput is the payload for adding a catalog book to a library.
type AddBookInput struct {
	Title      string
	Author     string
	CoverURL   string
	ExternalID string
}

// AddBook saves a catalog book into the user's library. Adding a book the
// user already holds is a conflict. A successful add invalidates the user's
// cached recommendations, since the library is a recommendation input.
func (s *LibraryService) AddBook(ctx context.Context, userID string, input AddBookInput) (*domain.LibraryBook, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.Validation("book title must not be empty")
	}

	book := &domain.LibraryBook{
		ID:         id.MustGenerate(id.PrefixBook),
		OwnerID:    userID,
		Title:      title,
		Author:     input.Author,
		CoverURL:   input.CoverURL,
		ExternalID: input.ExternalID,
		AddedAt:    time.Now(),
	}

	if err := s.store.AddToLibrary(ctx, book); err != nil {
		if errors.Is(err, store.ErrBookExists) {
			return nil, errors.Conflict("book is already in your library")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to add book to library")
	}

	s.cache.Del(cache.RecommendationsKey(userID))
	s.logger.Info("library book added, recommendations invalidated",
		"user_id", userID,
		"book_id", book.ID,
		"external_id", book.ExternalID,
	)
	return book, nil
}

// ListBooks returns the user's library, most recently added first.
func (s *LibraryService) ListBooks(ctx context.Context, userID string) ([]*domain.LibraryBook, error) {
	books, err := s.store.ListLibrary(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list library")
	}
	return books, nil
}
