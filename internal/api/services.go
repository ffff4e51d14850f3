package api

import (
	"github.com/marginalia-app/marginalia-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Discovery       *service.DiscoveryService
	Recommendations *service.RecommendationEngine
	Trending        *service.TrendingService
	Library         *service.LibraryService
	Notes           *service.NoteService
}
