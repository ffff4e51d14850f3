package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/errors"
	"github.com/marginalia-app/marginalia-server/internal/store"
)

func setupNoteService(t *testing.T) (*NoteService, string) {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	library := NewLibraryService(st, newTestCache(t), nil)
	book, err := library.AddBook(context.Background(), "user-1", AddBookInput{
		Title:      "Dune",
		ExternalID: "/works/OL1W",
	})
	require.NoError(t, err)

	return NewNoteService(st, nil), book.ID
}

func TestNoteService_CreateNote(t *testing.T) {
	svc, bookID := setupNoteService(t)

	note, err := svc.CreateNote(context.Background(), "user-1", CreateNoteInput{
		BookID:   bookID,
		Markdown: "The **spice** must flow.",
		Page:     42,
		Tags:     []string{"Sci-Fi", "sci-fi", " politics "},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, note.ID)
	assert.Equal(t, "The **spice** must flow.", note.Markdown)
	assert.Contains(t, note.HTML, "<strong>spice</strong>")
	assert.Equal(t, "The **spice** must flow.", note.Excerpt)
	assert.Equal(t, []string{"sci-fi", "politics"}, note.Tags, "tags are lowercased and deduped")
	assert.Equal(t, domain.VisibilityPrivate, note.Visibility, "visibility defaults to private")
}

func TestNoteService_CreateNote_Validation(t *testing.T) {
	svc, bookID := setupNoteService(t)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, "user-1", CreateNoteInput{BookID: bookID, Markdown: "   "})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = svc.CreateNote(ctx, "user-1", CreateNoteInput{Markdown: "content"})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = svc.CreateNote(ctx, "user-1", CreateNoteInput{BookID: "book-missing", Markdown: "content"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestNoteService_CreateNote_LongExcerpt(t *testing.T) {
	svc, bookID := setupNoteService(t)

	long := strings.Repeat("word ", 100)
	note, err := svc.CreateNote(context.Background(), "user-1", CreateNoteInput{
		BookID:   bookID,
		Markdown: long,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, len([]rune(note.Excerpt)), excerptRuneLimit+1)
	assert.True(t, strings.HasSuffix(note.Excerpt, "…"))
}

func TestNoteService_UpdateNote(t *testing.T) {
	svc, bookID := setupNoteService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "user-1", CreateNoteInput{BookID: bookID, Markdown: "original"})
	require.NoError(t, err)

	newContent := "revised *wording*"
	updated, err := svc.UpdateNote(ctx, "user-1", note.ID, UpdateNoteInput{Markdown: &newContent})
	require.NoError(t, err)

	assert.Equal(t, newContent, updated.Markdown)
	assert.Contains(t, updated.HTML, "<em>wording</em>")
	assert.True(t, updated.UpdatedAt.After(note.CreatedAt) || updated.UpdatedAt.Equal(note.CreatedAt))
}

func TestNoteService_UpdateNote_OtherUsersNote(t *testing.T) {
	svc, bookID := setupNoteService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "user-1", CreateNoteInput{BookID: bookID, Markdown: "mine"})
	require.NoError(t, err)

	content := "not yours"
	_, err = svc.UpdateNote(ctx, "user-2", note.ID, UpdateNoteInput{Markdown: &content})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestNoteService_DeleteNote(t *testing.T) {
	svc, bookID := setupNoteService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "user-1", CreateNoteInput{BookID: bookID, Markdown: "ephemeral"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(ctx, "user-1", note.ID))

	notes, err := svc.ListNotes(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.ErrorIs(t, svc.DeleteNote(ctx, "user-1", note.ID), errors.ErrNotFound)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short note", excerpt("short   note"))
	assert.Equal(t, "a b c", excerpt("a\nb\nc"))
	assert.Empty(t, excerpt(""))
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, normalizeTags(nil))
	assert.Nil(t, normalizeTags([]string{"", "  "}))
	assert.Equal(t, []string{"a", "b"}, normalizeTags([]string{"A", " b ", "a"}))
}
