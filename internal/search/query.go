package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Result caps bound the response size of the local sections.
const (
	BookResultLimit = 5
	NoteResultLimit = 10
)

// BookHit is a ranked library book match.
type BookHit struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author,omitempty"`
	CoverURL   string  `json:"cover_url,omitempty"`
	ExternalID string  `json:"external_id,omitempty"`
	Score      float64 `json:"score"`
}

// NoteHit is a ranked note match.
type NoteHit struct {
	ID      string  `json:"id"`
	BookID  string  `json:"book_id,omitempty"`
	Excerpt string  `json:"excerpt,omitempty"`
	Page    int     `json:"page,omitempty"`
	Chapter string  `json:"chapter,omitempty"`
	Score   float64 `json:"score"`
}

// SearchBooks returns the owner's library books ranked by relevance over
// title and author, capped at BookResultLimit. Every whitespace-separated
// token must match (AND semantics); an empty or whitespace-only query yields
// no results.
func (s *SearchIndex) SearchBooks(ctx context.Context, queryStr, ownerID string) ([]BookHit, error) {
	hits, err := s.searchScoped(ctx, queryStr, ownerID, DocTypeBook,
		[]string{"title", "author"},
		[]string{"id", "title", "author", "cover_url", "external_id"},
		BookResultLimit,
	)
	if err != nil {
		return nil, err
	}

	results := make([]BookHit, 0, len(hits))
	for _, hit := range hits {
		results = append(results, BookHit{
			ID:         hit.ID,
			Title:      stringField(hit.Fields, "title"),
			Author:     stringField(hit.Fields, "author"),
			CoverURL:   stringField(hit.Fields, "cover_url"),
			ExternalID: stringField(hit.Fields, "external_id"),
			Score:      hit.Score,
		})
	}
	return results, nil
}

// SearchNotes returns the owner's notes ranked by relevance over content and
// excerpt, capped at NoteResultLimit. Token semantics match SearchBooks.
func (s *SearchIndex) SearchNotes(ctx context.Context, queryStr, ownerID string) ([]NoteHit, error) {
	hits, err := s.searchScoped(ctx, queryStr, ownerID, DocTypeNote,
		[]string{"content", "excerpt"},
		[]string{"id", "book_id", "excerpt", "page", "chapter"},
		NoteResultLimit,
	)
	if err != nil {
		return nil, err
	}

	results := make([]NoteHit, 0, len(hits))
	for _, hit := range hits {
		results = append(results, NoteHit{
			ID:      hit.ID,
			BookID:  stringField(hit.Fields, "book_id"),
			Excerpt: stringField(hit.Fields, "excerpt"),
			Page:    intField(hit.Fields, "page"),
			Chapter: stringField(hit.Fields, "chapter"),
			Score:   hit.Score,
		})
	}
	return results, nil
}

type rawHit struct {
	ID     string
	Score  float64
	Fields map[string]interface{}
}

// searchScoped executes an owner- and type-scoped conjunction query.
func (s *SearchIndex) searchScoped(
	ctx context.Context,
	queryStr, ownerID string,
	docType DocType,
	searchFields, storedFields []string,
	limit int,
) ([]rawHit, error) {
	tokens := strings.Fields(queryStr)
	if len(tokens) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildScopedQuery(tokens, searchFields, docType, ownerID)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	searchRequest.Fields = storedFields
	// Relevance first; created_at breaks ties deterministically (newest first).
	searchRequest.SortBy([]string{"-_score", "-created_at"})

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]rawHit, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		hits = append(hits, rawHit{
			ID:     hit.ID,
			Score:  hit.Score,
			Fields: hit.Fields,
		})
	}
	return hits, nil
}

// buildScopedQuery requires ALL tokens to match (each in any of the search
// fields), conjoined with exact owner and type filters. The AND across tokens
// is a deliberate recall-limiting choice: "dune herbert" must not return
// everything matching either word alone.
func buildScopedQuery(tokens, fields []string, docType DocType, ownerID string) query.Query {
	queries := make([]query.Query, 0, len(tokens)+2)

	for _, token := range tokens {
		perField := make([]query.Query, 0, len(fields))
		for _, field := range fields {
			mq := bleve.NewMatchQuery(token)
			mq.SetField(field)
			perField = append(perField, mq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(perField...))
	}

	typeQuery := bleve.NewTermQuery(string(docType))
	typeQuery.SetField("type")
	queries = append(queries, typeQuery)

	ownerQuery := bleve.NewTermQuery(ownerID)
	ownerQuery.SetField("owner_id")
	queries = append(queries, ownerQuery)

	return bleve.NewConjunctionQuery(queries...)
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]interface{}, name string) int {
	if v, ok := fields[name].(float64); ok {
		return int(v)
	}
	return 0
}
