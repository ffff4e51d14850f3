package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

const (
	bookPrefix           = "book:"
	bookByOwnerPrefix    = "idx:book:owner:"
	bookByExternalPrefix = "idx:book:external:"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrBookExists   = errors.New("book already in library")
)

func bookOwnerKey(ownerID, bookID string) []byte {
	return []byte(bookByOwnerPrefix + ownerID + ":" + bookID)
}

func bookExternalKey(ownerID, externalID string) []byte {
	return []byte(bookByExternalPrefix + ownerID + ":" + externalID)
}

// AddToLibrary persists a library book for its owner. The owner+external ID
// pair is unique: re-adding a catalog record the owner already has fails with
// ErrBookExists and leaves the library untouched. The search index is updated
// synchronously after the record commits.
func (s *Store) AddToLibrary(ctx context.Context, book *domain.LibraryBook) error {
	if book.ExternalID != "" {
		exists, err := s.exists(bookExternalKey(book.OwnerID, book.ExternalID))
		if err != nil {
			return fmt.Errorf("check library membership: %w", err)
		}
		if exists {
			return ErrBookExists
		}
	}

	key := []byte(bookPrefix + book.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		if err := txn.Set(bookOwnerKey(book.OwnerID, book.ID), []byte(book.ID)); err != nil {
			return err
		}

		if book.ExternalID != "" {
			if err := txn.Set(bookExternalKey(book.OwnerID, book.ExternalID), []byte(book.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add to library: %w", err)
	}

	if err := s.searchIndexer.IndexBook(book); err != nil {
		return fmt.Errorf("index library book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book added to library",
			slog.String("id", book.ID),
			slog.String("owner_id", book.OwnerID),
			slog.String("title", book.Title),
			slog.String("external_id", book.ExternalID),
		)
	}
	return nil
}

// GetLibraryBook retrieves a library book by ID.
func (s *Store) GetLibraryBook(ctx context.Context, id string) (*domain.LibraryBook, error) {
	var book domain.LibraryBook
	err := s.get([]byte(bookPrefix+id), &book)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get library book: %w", err)
	}
	return &book, nil
}

// ListLibrary returns the owner's library books, most recently added first.
func (s *Store) ListLibrary(ctx context.Context, ownerID string) ([]*domain.LibraryBook, error) {
	var ids []string
	err := s.iteratePrefix([]byte(bookByOwnerPrefix+ownerID+":"), func(_, val []byte) error {
		ids = append(ids, string(val))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}

	books := make([]*domain.LibraryBook, 0, len(ids))
	for _, id := range ids {
		book, err := s.GetLibraryBook(ctx, id)
		if err != nil {
			if errors.Is(err, ErrBookNotFound) {
				continue
			}
			return nil, err
		}
		books = append(books, book)
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].AddedAt.After(books[j].AddedAt)
	})
	return books, nil
}

// ListLibraryExternalIDs returns the set of catalog IDs present in the owner's
// library. Used to exclude already-owned books from recommendations.
func (s *Store) ListLibraryExternalIDs(ctx context.Context, ownerID string) (map[string]struct{}, error) {
	prefix := bookByExternalPrefix + ownerID + ":"
	owned := make(map[string]struct{})

	err := s.iteratePrefix([]byte(prefix), func(key, _ []byte) error {
		owned[string(key[len(prefix):])] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list library external ids: %w", err)
	}
	return owned, nil
}

// TopAuthors returns the owner's most frequent library authors, at most k,
// ordered by count descending with alphabetical tie-break. The catalog's
// unknown-author placeholder is not a signal and is skipped.
func (s *Store) TopAuthors(ctx context.Context, ownerID string, k int) ([]domain.Signal, error) {
	books, err := s.ListLibrary(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, book := range books {
		if book.Author == "" || book.Author == "N/A" {
			continue
		}
		counts[book.Author]++
	}
	return topSignals(counts, k), nil
}

// topSignals ranks counted values by count descending, breaking ties
// alphabetically, and returns at most k of them.
func topSignals(counts map[string]int, k int) []domain.Signal {
	signals := make([]domain.Signal, 0, len(counts))
	for value, count := range counts {
		signals = append(signals, domain.Signal{Value: value, Count: count})
	}

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Count != signals[j].Count {
			return signals[i].Count > signals[j].Count
		}
		return signals[i].Value < signals[j].Value
	})

	if k >= 0 && len(signals) > k {
		signals = signals[:k]
	}
	return signals
}
