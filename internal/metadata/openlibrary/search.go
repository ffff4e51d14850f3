package openlibrary

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/url"
	"strconv"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

const (
	// AuthorFallback stands in when the source omits author names.
	AuthorFallback = "N/A"

	// DescriptionPlaceholder stands in for every result because the search
	// endpoint never returns a description field.
	DescriptionPlaceholder = "No description available from Open Library search."

	coverURLTemplate = "https://covers.openlibrary.org/b/id/%d-M.jpg"
)

// Search queries the Open Library catalog and returns normalized Books,
// most-relevant-first as ordered by the upstream source.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Book, error) {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, wrapError("search", query, err)
	}

	var resp struct {
		Docs []rawDoc `json:"docs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", query, fmt.Errorf("parse response: %w", err))
	}

	books := make([]domain.Book, 0, len(resp.Docs))
	for i := range resp.Docs {
		books = append(books, normalizeDoc(&resp.Docs[i]))
	}

	return books, nil
}

// normalizeDoc maps one heterogeneous search document to a canonical Book:
// the work key becomes the stable external ID (editions have none), missing
// authors fall back to a sentinel, and the cover ID is expanded to an image
// URL when present.
func normalizeDoc(doc *rawDoc) domain.Book {
	authors := doc.AuthorNames
	if len(authors) == 0 {
		authors = []string{AuthorFallback}
	}

	var thumbnail string
	if doc.CoverID != 0 {
		thumbnail = fmt.Sprintf(coverURLTemplate, doc.CoverID)
	}

	return domain.Book{
		ExternalID:   doc.Key,
		Title:        doc.Title,
		Authors:      authors,
		ThumbnailURL: thumbnail,
		Description:  DescriptionPlaceholder,
	}
}

// rawDoc is the subset of an Open Library search document we consume.
type rawDoc struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	AuthorNames []string `json:"author_name"`
	CoverID     int64    `json:"cover_i"`
}
