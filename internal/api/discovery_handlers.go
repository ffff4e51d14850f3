package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/search"
)

func (s *Server) registerDiscoveryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Discovery search",
		Description: "Fans out concurrently to the catalog, the user's library and notes, their recommendations, and the trending panels. Catalog and local search need a query, personal sections need a user, trending always runs. Failed sources degrade into the errors list.",
		Tags:        []string{"Discovery"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for a discovery search. Both the query and
// the user header are optional; each one unlocks more sections of the result.
type SearchInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID (optional)"`
	Query  string `query:"q" validate:"max=200" doc:"Search query (optional)"`
}

// SearchResponse contains the composite discovery results.
type SearchResponse struct {
	Query           string                `json:"query" doc:"Original search query"`
	Catalog         []domain.Book         `json:"catalog" doc:"Catalog matches from Open Library"`
	Books           []search.BookHit      `json:"books" doc:"Matches from the user's library"`
	Notes           []search.NoteHit      `json:"notes" doc:"Matches from the user's notes"`
	Recommendations []domain.Book         `json:"recommendations" doc:"Personalized picks for the user"`
	Trending        *domain.TrendingPanel `json:"trending,omitempty" doc:"Sampled browsing panels"`
	Errors          []string              `json:"errors" doc:"Sources that failed for this request"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(input.UserID)

	result, err := s.services.Discovery.Search(ctx, userID, input.Query)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("discovery search completed",
		"user_id", userID,
		"query", input.Query,
		"catalog", len(result.Catalog),
		"books", len(result.Books),
		"notes", len(result.Notes),
		"recommendations", len(result.Recommendations),
		"degraded", len(result.Errors),
	)

	return &SearchOutput{Body: SearchResponse{
		Query:           input.Query,
		Catalog:         result.Catalog,
		Books:           result.Books,
		Notes:           result.Notes,
		Recommendations: result.Recommendations,
		Trending:        result.Trending,
		Errors:          result.Errors,
	}}, nil
}
