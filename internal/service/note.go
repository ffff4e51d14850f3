package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/errors"
	"github.com/marginalia-app/marginalia-server/internal/id"
	"github.com/marginalia-app/marginalia-server/internal/store"
)

// excerptRuneLimit bounds the auto-derived excerpt shown in search results.
const excerptRuneLimit = 160

// NoteService manages reading notes. Notes are written in Markdown and stored
// alongside their rendered HTML; the raw Markdown is what gets indexed for
// search.
type NoteService struct {
	store    *store.Store
	markdown goldmark.Markdown
	logger   *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(st *store.Store, logger *slog.Logger) *NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteService{
		store: st,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		logger: logger,
	}
}

// CreateNoteInput is the payload for creating a note.
type CreateNoteInput struct {
	BookID     string
	Markdown   string
	Page       int
	Chapter    string
	Tags       []string
	Visibility domain.Visibility
}

// CreateNote renders and persists a new note for the user.
func (s *NoteService) CreateNote(ctx context.Context, userID string, input CreateNoteInput) (*domain.Note, error) {
	markdown := strings.TrimSpace(input.Markdown)
	if markdown == "" {
		return nil, errors.Validation("note content must not be empty")
	}
	if input.BookID == "" {
		return nil, errors.Validation("note must reference a book")
	}
	if _, err := s.store.GetLibraryBook(ctx, input.BookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, errors.NotFoundf("book %s not found", input.BookID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load book for note")
	}

	rendered, err := s.render(markdown)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "note markdown failed to render")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	now := time.Now()
	note := &domain.Note{
		ID:         id.MustGenerate(id.PrefixNote),
		OwnerID:    userID,
		BookID:     input.BookID,
		Markdown:   markdown,
		HTML:       rendered,
		Excerpt:    excerpt(markdown),
		Page:       input.Page,
		Chapter:    input.Chapter,
		Tags:       normalizeTags(input.Tags),
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create note")
	}
	return note, nil
}

// UpdateNoteInput is the payload for updating a note. Nil fields are unchanged.
type UpdateNoteInput struct {
	Markdown   *string
	Page       *int
	Chapter    *string
	Tags       []string
	Visibility *domain.Visibility
}

// UpdateNote applies a partial update to the user's note, re-rendering and
// reindexing when the content changed.
func (s *NoteService) UpdateNote(ctx context.Context, userID, noteID string, input UpdateNoteInput) (*domain.Note, error) {
	note, err := s.getOwned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if input.Markdown != nil {
		markdown := strings.TrimSpace(*input.Markdown)
		if markdown == "" {
			return nil, errors.Validation("note content must not be empty")
		}
		rendered, err := s.render(markdown)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidation, "note markdown failed to render")
		}
		note.Markdown = markdown
		note.HTML = rendered
		note.Excerpt = excerpt(markdown)
	}
	if input.Page != nil {
		note.Page = *input.Page
	}
	if input.Chapter != nil {
		note.Chapter = *input.Chapter
	}
	if input.Tags != nil {
		note.Tags = normalizeTags(input.Tags)
	}
	if input.Visibility != nil {
		note.Visibility = *input.Visibility
	}
	note.UpdatedAt = time.Now()

	if err := s.store.UpdateNote(ctx, note); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to update note")
	}
	return note, nil
}

// DeleteNote removes the user's note.
func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := s.store.DeleteNote(ctx, userID, noteID); err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			return errors.NotFoundf("note %s not found", noteID)
		}
		return errors.Wrap(err, errors.CodeInternal, "failed to delete note")
	}
	return nil
}

// ListNotes returns the user's notes, most recently created first.
func (s *NoteService) ListNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := s.store.ListNotes(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list notes")
	}
	return notes, nil
}

func (s *NoteService) getOwned(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			return nil, errors.NotFoundf("note %s not found", noteID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load note")
	}
	// Ownership mismatches read as not-found so note IDs are not probeable.
	if note.OwnerID != userID {
		return nil, errors.NotFoundf("note %s not found", noteID)
	}
	return note, nil
}

func (s *NoteService) render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// excerpt derives a short plain-text preview from the note's markdown.
func excerpt(markdown string) string {
	text := strings.Join(strings.Fields(markdown), " ")
	runes := []rune(text)
	if len(runes) <= excerptRuneLimit {
		return text
	}
	return strings.TrimRightFunc(string(runes[:excerptRuneLimit]), unicode.IsSpace) + "…"
}

// normalizeTags trims, lowercases, and dedups tags while preserving order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
