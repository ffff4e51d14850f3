// Package domain defines the core entities shared across the Marginalia server.
package domain

import "time"

// Book is the canonical, normalized record for a catalog item regardless of
// source quirks. Instances are immutable once constructed from a catalog
// response; callers must not mutate the Authors slice.
type Book struct {
	ExternalID   string   `json:"external_id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// PrimaryAuthor returns the first listed author, or an empty string.
func (b Book) PrimaryAuthor() string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0]
}

// LibraryBook is a book a user has added to their shelf. It links back to the
// canonical catalog record through ExternalID.
type LibraryBook struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	CoverURL   string    `json:"cover_url,omitempty"`
	ExternalID string    `json:"external_id"`
	AddedAt    time.Time `json:"added_at"`
}
