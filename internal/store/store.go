// Package store persists library books and notes in Badger and keeps the
// search index in sync with every mutation.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

// SearchIndexer is the interface for updating the search index.
// Store uses this to keep search in sync without depending on the search
// implementation. Index updates run synchronously inside the mutating call so
// the index never lags committed content.
type SearchIndexer interface {
	IndexBook(book *domain.LibraryBook) error
	IndexNote(note *domain.Note) error
	DeleteDocument(id string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(*domain.LibraryBook) error { return nil }

// IndexNote is a no-op.
func (NoopSearchIndexer) IndexNote(*domain.Note) error { return nil }

// DeleteDocument is a no-op.
func (NoopSearchIndexer) DeleteDocument(string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Search indexer for keeping search in sync with store changes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:            db,
		logger:        logger,
		searchIndexer: NoopSearchIndexer{},
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before the search index can be wired to it).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// ReindexAll rebuilds the search index from every persisted book and note.
// Used on startup when the index was discarded (mapping change or corruption).
func (s *Store) ReindexAll(ctx context.Context) error {
	books := 0
	err := s.iteratePrefix([]byte(bookPrefix), func(_, val []byte) error {
		var book domain.LibraryBook
		if err := json.Unmarshal(val, &book); err != nil {
			return fmt.Errorf("decode book: %w", err)
		}
		if err := s.searchIndexer.IndexBook(&book); err != nil {
			return fmt.Errorf("index book %s: %w", book.ID, err)
		}
		books++
		return ctx.Err()
	})
	if err != nil {
		return err
	}

	notes := 0
	err = s.iteratePrefix([]byte(notePrefix), func(_, val []byte) error {
		var note domain.Note
		if err := json.Unmarshal(val, &note); err != nil {
			return fmt.Errorf("decode note: %w", err)
		}
		if err := s.searchIndexer.IndexNote(&note); err != nil {
			return fmt.Errorf("index note %s: %w", note.ID, err)
		}
		notes++
		return ctx.Err()
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("search index rebuilt from store", "books", books, "notes", notes)
	}
	return nil
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// iteratePrefix visits every key/value pair under the given prefix.
func (s *Store) iteratePrefix(prefix []byte, fn func(key, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				return fn(item.Key(), val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
