package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns the user's library books, most recently added first.",
		Tags:        []string{"Library"},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addLibraryBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/library",
		Summary:       "Add book to library",
		Description:   "Saves a catalog book into the user's library. Adding a book the user already holds is a conflict.",
		Tags:          []string{"Library"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddLibraryBook)
}

// === DTOs ===

// ListLibraryInput identifies the requesting user.
type ListLibraryInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
}

// LibraryResponse contains the user's library books.
type LibraryResponse struct {
	Books []*domain.LibraryBook `json:"books" doc:"Library books, newest first"`
}

// ListLibraryOutput wraps the library response for Huma.
type ListLibraryOutput struct {
	Body LibraryResponse
}

// AddBookRequest is the payload for adding a book to the library.
type AddBookRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=500" doc:"Book title"`
	Author     string `json:"author,omitempty" validate:"max=300" doc:"Primary author"`
	CoverURL   string `json:"cover_url,omitempty" validate:"omitempty,url" doc:"Cover image URL"`
	ExternalID string `json:"external_id,omitempty" validate:"max=100" doc:"Catalog identifier, used for dedup"`
}

// AddBookInput wraps the add-book request for Huma.
type AddBookInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	Body   AddBookRequest
}

// AddBookOutput wraps the created book for Huma.
type AddBookOutput struct {
	Body *domain.LibraryBook
}

// === Handlers ===

func (s *Server) handleListLibrary(ctx context.Context, input *ListLibraryInput) (*ListLibraryOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Library.ListBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*domain.LibraryBook{}
	}

	return &ListLibraryOutput{Body: LibraryResponse{Books: books}}, nil
}

func (s *Server) handleAddLibraryBook(ctx context.Context, input *AddBookInput) (*AddBookOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Library.AddBook(ctx, userID, service.AddBookInput{
		Title:      input.Body.Title,
		Author:     input.Body.Author,
		CoverURL:   input.Body.CoverURL,
		ExternalID: input.Body.ExternalID,
	})
	if err != nil {
		return nil, err
	}

	return &AddBookOutput{Body: book}, nil
}
