package domain

import "time"

// Visibility controls who can see a note.
type Visibility string

// Note visibility values.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
)

// Note is a reading note attached to a library book. Markdown is the source of
// truth; HTML is rendered from it on every write. The note's search document is
// recomputed synchronously on create and update so the index never lags
// committed content.
type Note struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	BookID     string     `json:"book_id"`
	Markdown   string     `json:"markdown"`
	HTML       string     `json:"html"`
	Excerpt    string     `json:"excerpt,omitempty"`
	Page       int        `json:"page,omitempty"`
	Chapter    string     `json:"chapter,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
