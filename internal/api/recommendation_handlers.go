package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Personal recommendations",
		Description: "Returns up to 10 catalog books derived from the user's note tags and library authors.",
		Tags:        []string{"Discovery"},
	}, s.handleGetRecommendations)
}

// === DTOs ===

// RecommendationsInput identifies the requesting user.
type RecommendationsInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
}

// RecommendationsResponse contains the user's recommendation set.
type RecommendationsResponse struct {
	Books       []domain.Book `json:"books" doc:"Recommended catalog books, best first"`
	GeneratedAt time.Time     `json:"generatedAt" doc:"When this set was computed"`
}

// RecommendationsOutput wraps the recommendations response for Huma.
type RecommendationsOutput struct {
	Body RecommendationsResponse
}

// === Handlers ===

func (s *Server) handleGetRecommendations(ctx context.Context, input *RecommendationsInput) (*RecommendationsOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	set, err := s.services.Recommendations.Recommend(ctx, userID)
	if err != nil {
		s.logger.Error("recommendations failed", "user_id", userID, "error", err)
		return nil, err
	}

	return &RecommendationsOutput{Body: RecommendationsResponse{
		Books:       set.Books,
		GeneratedAt: set.GeneratedAt,
	}}, nil
}
