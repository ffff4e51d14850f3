package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

func testNote(id, owner, bookID string, tags []string, createdAt time.Time) *domain.Note {
	return &domain.Note{
		ID:         id,
		OwnerID:    owner,
		BookID:     bookID,
		Markdown:   "some *markdown* for " + id,
		Tags:       tags,
		Visibility: domain.VisibilityPrivate,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestStore_CreateAndGetNote(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	note := testNote("note-1", "user-1", "book-1", []string{"sci-fi"}, time.Now())
	require.NoError(t, s.CreateNote(ctx, note))

	got, err := s.GetNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, "book-1", got.BookID)
	assert.Equal(t, []string{"sci-fi"}, got.Tags)
}

func TestStore_GetNote_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetNote(context.Background(), "note-missing")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestStore_UpdateNote(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	note := testNote("note-1", "user-1", "book-1", nil, time.Now())
	require.NoError(t, s.CreateNote(ctx, note))

	note.Markdown = "revised"
	note.UpdatedAt = time.Now()
	require.NoError(t, s.UpdateNote(ctx, note))

	got, err := s.GetNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Equal(t, "revised", got.Markdown)
}

func TestStore_UpdateNote_WrongOwner(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNote(ctx, testNote("note-1", "user-1", "book-1", nil, time.Now())))

	stolen := testNote("note-1", "user-2", "book-1", nil, time.Now())
	assert.ErrorIs(t, s.UpdateNote(ctx, stolen), ErrNoteNotFound)
}

func TestStore_DeleteNote(t *testing.T) {
	s := setupTestStore(t)
	recorder := &recordingIndexer{}
	s.SetSearchIndexer(recorder)
	ctx := context.Background()

	require.NoError(t, s.CreateNote(ctx, testNote("note-1", "user-1", "book-1", nil, time.Now())))
	require.NoError(t, s.DeleteNote(ctx, "user-1", "note-1"))

	_, err := s.GetNote(ctx, "note-1")
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, []string{"note-1"}, recorder.deleted)
}

func TestStore_DeleteNote_WrongOwner(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNote(ctx, testNote("note-1", "user-1", "book-1", nil, time.Now())))

	assert.ErrorIs(t, s.DeleteNote(ctx, "user-2", "note-1"), ErrNoteNotFound)

	// The note survives the rejected delete.
	_, err := s.GetNote(ctx, "note-1")
	require.NoError(t, err)
}

func TestStore_ListNotes_NewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.CreateNote(ctx, testNote("note-1", "user-1", "book-1", nil, base.Add(-time.Hour))))
	require.NoError(t, s.CreateNote(ctx, testNote("note-2", "user-1", "book-1", nil, base)))
	require.NoError(t, s.CreateNote(ctx, testNote("note-3", "user-2", "book-2", nil, base)))

	notes, err := s.ListNotes(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "note-2", notes[0].ID)
	assert.Equal(t, "note-1", notes[1].ID)
}

func TestStore_TopTags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateNote(ctx, testNote("note-1", "user-1", "book-1", []string{"sci-fi", "politics"}, now)))
	require.NoError(t, s.CreateNote(ctx, testNote("note-2", "user-1", "book-1", []string{"sci-fi"}, now)))
	require.NoError(t, s.CreateNote(ctx, testNote("note-3", "user-1", "book-2", []string{"ecology"}, now)))
	require.NoError(t, s.CreateNote(ctx, testNote("note-4", "user-2", "book-3", []string{"unrelated"}, now)))

	tags, err := s.TopTags(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	assert.Equal(t, domain.Signal{Value: "sci-fi", Count: 2}, tags[0])
	// ecology beats politics alphabetically on the count tie.
	assert.Equal(t, domain.Signal{Value: "ecology", Count: 1}, tags[1])
}

func TestStore_TopTags_NoNotes(t *testing.T) {
	s := setupTestStore(t)

	tags, err := s.TopTags(context.Background(), "user-1", 3)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
