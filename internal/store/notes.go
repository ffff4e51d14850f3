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
	notePrefix        = "note:"
	noteByOwnerPrefix = "idx:note:owner:"
)

var ErrNoteNotFound = errors.New("note not found")

func noteOwnerKey(ownerID, noteID string) []byte {
	return []byte(noteByOwnerPrefix + ownerID + ":" + noteID)
}

// CreateNote persists a new note and indexes it synchronously.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(note)
		if err != nil {
			return fmt.Errorf("marshal note: %w", err)
		}

		if err := txn.Set([]byte(notePrefix+note.ID), data); err != nil {
			return err
		}
		return txn.Set(noteOwnerKey(note.OwnerID, note.ID), []byte(note.ID))
	})
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	if err := s.searchIndexer.IndexNote(note); err != nil {
		return fmt.Errorf("index note: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "note created",
			slog.String("id", note.ID),
			slog.String("owner_id", note.OwnerID),
			slog.String("book_id", note.BookID),
		)
	}
	return nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	var note domain.Note
	err := s.get([]byte(notePrefix+id), &note)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &note, nil
}

// UpdateNote replaces an existing note and reindexes it synchronously.
// The note must already exist and keep its owner.
func (s *Store) UpdateNote(ctx context.Context, note *domain.Note) error {
	existing, err := s.GetNote(ctx, note.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != note.OwnerID {
		return ErrNoteNotFound
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(note)
		if err != nil {
			return fmt.Errorf("marshal note: %w", err)
		}
		return txn.Set([]byte(notePrefix+note.ID), data)
	})
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}

	if err := s.searchIndexer.IndexNote(note); err != nil {
		return fmt.Errorf("reindex note: %w", err)
	}
	return nil
}

// DeleteNote removes a note and its search document.
func (s *Store) DeleteNote(ctx context.Context, ownerID, id string) error {
	note, err := s.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if note.OwnerID != ownerID {
		return ErrNoteNotFound
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(notePrefix + id)); err != nil {
			return err
		}
		return txn.Delete(noteOwnerKey(ownerID, id))
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if err := s.searchIndexer.DeleteDocument(id); err != nil {
		return fmt.Errorf("remove note from index: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "note deleted",
			slog.String("id", id),
			slog.String("owner_id", ownerID),
		)
	}
	return nil
}

// ListNotes returns the owner's notes, most recently created first.
func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := s.iteratePrefix([]byte(noteByOwnerPrefix+ownerID+":"), func(_, val []byte) error {
		id := string(val)
		note, err := s.GetNote(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNoteNotFound) {
				return nil
			}
			return err
		}
		notes = append(notes, note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

// TopTags returns the owner's most frequent note tags, at most k, ordered by
// count descending with alphabetical tie-break.
func (s *Store) TopTags(ctx context.Context, ownerID string, k int) ([]domain.Signal, error) {
	notes, err := s.ListNotes(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, note := range notes {
		for _, tag := range note.Tags {
			if tag == "" {
				continue
			}
			counts[tag]++
		}
	}
	return topSignals(counts, k), nil
}
