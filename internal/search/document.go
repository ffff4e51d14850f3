// Package search provides ranked full-text search over a user's own library
// books and notes using Bleve. Results are always scoped to one owner; the
// index itself is shared across users with an owner filter on every query.
package search

import (
	"github.com/marginalia-app/marginalia-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeBook DocType = "book"
	DocTypeNote DocType = "note"
)

// Document is the unified document structure for the Bleve index.
// Books index title+author; notes index content+excerpt. Owner and type are
// exact-match keyword fields used as filters on every query.
type Document struct {
	// Identity
	ID      string  `json:"id"`
	Type    DocType `json:"type"`
	OwnerID string  `json:"owner_id"`

	// Book fields (empty for notes)
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	CoverURL   string `json:"cover_url,omitempty"`
	ExternalID string `json:"external_id,omitempty"`

	// Note fields (empty for books)
	Content string `json:"content,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	BookID  string `json:"book_id,omitempty"`
	Page    int    `json:"page,omitempty"`
	Chapter string `json:"chapter,omitempty"`

	// Unix millis, used as the deterministic tie-break (newest first).
	CreatedAt int64 `json:"created_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our mapping
// uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"owner_id":   d.OwnerID,
		"created_at": d.CreatedAt,
	}

	if d.Title != "" {
		m["title"] = d.Title
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.CoverURL != "" {
		m["cover_url"] = d.CoverURL
	}
	if d.ExternalID != "" {
		m["external_id"] = d.ExternalID
	}
	if d.Content != "" {
		m["content"] = d.Content
	}
	if d.Excerpt != "" {
		m["excerpt"] = d.Excerpt
	}
	if d.BookID != "" {
		m["book_id"] = d.BookID
	}
	if d.Page > 0 {
		m["page"] = d.Page
	}
	if d.Chapter != "" {
		m["chapter"] = d.Chapter
	}

	return m
}

// BookToDocument converts a library book to its index document.
func BookToDocument(book *domain.LibraryBook) *Document {
	return &Document{
		ID:         book.ID,
		Type:       DocTypeBook,
		OwnerID:    book.OwnerID,
		Title:      book.Title,
		Author:     book.Author,
		CoverURL:   book.CoverURL,
		ExternalID: book.ExternalID,
		CreatedAt:  book.AddedAt.UnixMilli(),
	}
}

// NoteToDocument converts a note to its index document. The raw markdown is
// indexed, not the rendered HTML, so markup never matches a query.
func NoteToDocument(note *domain.Note) *Document {
	return &Document{
		ID:        note.ID,
		Type:      DocTypeNote,
		OwnerID:   note.OwnerID,
		Content:   note.Markdown,
		Excerpt:   note.Excerpt,
		BookID:    note.BookID,
		Page:      note.Page,
		Chapter:   note.Chapter,
		CreatedAt: note.CreatedAt.UnixMilli(),
	}
}
