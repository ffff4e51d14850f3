package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

func (s *Server) registerTrendingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTrending",
		Method:      http.MethodGet,
		Path:        "/api/v1/trending",
		Summary:     "Trending panels",
		Description: "Returns freshly sampled author, genre, and topic panels with a few catalog books each.",
		Tags:        []string{"Discovery"},
	}, s.handleGetTrending)
}

// === DTOs ===

// TrendingResponse contains the sampled trending panels.
type TrendingResponse struct {
	Authors []domain.TrendingEntry `json:"authors" doc:"Sampled author panels"`
	Genres  []domain.TrendingEntry `json:"genres" doc:"Sampled genre panels"`
	Topics  []domain.TrendingEntry `json:"topics" doc:"Sampled topic panels"`
}

// TrendingOutput wraps the trending response for Huma.
type TrendingOutput struct {
	Body TrendingResponse
}

// === Handlers ===

func (s *Server) handleGetTrending(ctx context.Context, _ *struct{}) (*TrendingOutput, error) {
	panel, err := s.services.Trending.Trending(ctx)
	if err != nil {
		s.logger.Error("trending fetch failed", "error", err)
		return nil, err
	}

	return &TrendingOutput{Body: TrendingResponse{
		Authors: panel.Authors,
		Genres:  panel.Genres,
		Topics:  panel.Topics,
	}}, nil
}
