package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes",
		Summary:     "List notes",
		Description: "Returns the user's reading notes, most recently created first.",
		Tags:        []string{"Notes"},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/notes",
		Summary:       "Create note",
		Description:   "Creates a Markdown reading note attached to a library book.",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPatch,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Update note",
		Description: "Applies a partial update to one of the user's notes. Omitted fields are unchanged.",
		Tags:        []string{"Notes"},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNote",
		Method:        http.MethodDelete,
		Path:          "/api/v1/notes/{id}",
		Summary:       "Delete note",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteNote)
}

// === DTOs ===

// ListNotesInput identifies the requesting user.
type ListNotesInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
}

// NotesResponse contains the user's notes.
type NotesResponse struct {
	Notes []*domain.Note `json:"notes" doc:"Notes, newest first"`
}

// ListNotesOutput wraps the notes response for Huma.
type ListNotesOutput struct {
	Body NotesResponse
}

// CreateNoteRequest is the payload for creating a note.
type CreateNoteRequest struct {
	BookID     string   `json:"book_id" validate:"required" doc:"Library book this note belongs to"`
	Markdown   string   `json:"markdown" validate:"required,max=20000" doc:"Note content in Markdown"`
	Page       int      `json:"page,omitempty" validate:"gte=0" doc:"Page number the note refers to"`
	Chapter    string   `json:"chapter,omitempty" validate:"max=200" doc:"Chapter the note refers to"`
	Tags       []string `json:"tags,omitempty" validate:"max=20,dive,max=50" doc:"Freeform tags"`
	Visibility string   `json:"visibility,omitempty" validate:"omitempty,oneof=private shared" doc:"Who can see the note"`
}

// CreateNoteInput wraps the create-note request for Huma.
type CreateNoteInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	Body   CreateNoteRequest
}

// NoteOutput wraps a single note for Huma.
type NoteOutput struct {
	Body *domain.Note
}

// UpdateNoteRequest is the payload for a partial note update. Nil fields are
// left unchanged.
type UpdateNoteRequest struct {
	Markdown   *string  `json:"markdown,omitempty" validate:"omitempty,max=20000" doc:"Replacement Markdown content"`
	Page       *int     `json:"page,omitempty" validate:"omitempty,gte=0" doc:"Replacement page number"`
	Chapter    *string  `json:"chapter,omitempty" validate:"omitempty,max=200" doc:"Replacement chapter"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50" doc:"Replacement tag set"`
	Visibility *string  `json:"visibility,omitempty" validate:"omitempty,oneof=private shared" doc:"Replacement visibility"`
}

// UpdateNoteInput wraps the update-note request for Huma.
type UpdateNoteInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	ID     string `path:"id" doc:"Note ID"`
	Body   UpdateNoteRequest
}

// DeleteNoteInput identifies the note to delete.
type DeleteNoteInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	ID     string `path:"id" doc:"Note ID"`
}

// === Handlers ===

func (s *Server) handleListNotes(ctx context.Context, input *ListNotesInput) (*ListNotesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Notes.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []*domain.Note{}
	}

	return &ListNotesOutput{Body: NotesResponse{Notes: notes}}, nil
}

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	note, err := s.services.Notes.CreateNote(ctx, userID, service.CreateNoteInput{
		BookID:     input.Body.BookID,
		Markdown:   input.Body.Markdown,
		Page:       input.Body.Page,
		Chapter:    input.Body.Chapter,
		Tags:       input.Body.Tags,
		Visibility: domain.Visibility(input.Body.Visibility),
	})
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	update := service.UpdateNoteInput{
		Markdown: input.Body.Markdown,
		Page:     input.Body.Page,
		Chapter:  input.Body.Chapter,
		Tags:     input.Body.Tags,
	}
	if input.Body.Visibility != nil {
		visibility := domain.Visibility(*input.Body.Visibility)
		update.Visibility = &visibility
	}

	note, err := s.services.Notes.UpdateNote(ctx, userID, input.ID, update)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *DeleteNoteInput) (*struct{}, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Notes.DeleteNote(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
