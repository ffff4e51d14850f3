package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/marginalia-app/marginalia-server/internal/errors"
	"github.com/marginalia-app/marginalia-server/internal/validation"
)

type createNoteRequest struct {
	BookID     string `json:"bookId" validate:"required"`
	Markdown   string `json:"markdown" validate:"required,max=20000"`
	Page       int    `json:"page" validate:"gte=0"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=private shared"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := createNoteRequest{
		BookID:     "book-1",
		Markdown:   "The spice must flow.",
		Page:       12,
		Visibility: "private",
	}

	err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	//nolint:govet // fieldalignment: Minor memory optimization not worth the complexity in test code
	tests := []struct {
		name      string
		req       createNoteRequest
		wantField string
	}{
		{
			name: "missing book id",
			req: createNoteRequest{
				Markdown: "content",
			},
			wantField: "bookId",
		},
		{
			name: "missing markdown",
			req: createNoteRequest{
				BookID: "book-1",
			},
			wantField: "markdown",
		},
		{
			name: "negative page",
			req: createNoteRequest{
				BookID:   "book-1",
				Markdown: "content",
				Page:     -1,
			},
			wantField: "page",
		},
		{
			name: "unknown visibility",
			req: createNoteRequest{
				BookID:     "book-1",
				Markdown:   "content",
				Visibility: "public",
			},
			wantField: "visibility",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			assert.Error(t, err)

			var domainErr *domainerrors.Error
			if assert.True(t, domainerrors.As(err, &domainErr)) {
				assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
				assert.Contains(t, domainErr.Details, tt.wantField)
			}
		})
	}
}

func TestValidator_FriendlyMessages(t *testing.T) {
	v := validation.New()

	err := v.Validate(createNoteRequest{
		BookID:     "book-1",
		Markdown:   "content",
		Page:       -3,
		Visibility: "public",
	})
	assert.Error(t, err)

	var domainErr *domainerrors.Error
	if assert.True(t, domainerrors.As(err, &domainErr)) {
		assert.Equal(t, "must be greater than or equal to 0", domainErr.Details["page"])
		assert.Equal(t, "must be one of: private shared", domainErr.Details["visibility"])
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(createNoteRequest{Markdown: "content"})
	assert.Error(t, err)

	// Details use the JSON tag name "bookId", not the struct field name.
	var domainErr *domainerrors.Error
	if assert.True(t, domainerrors.As(err, &domainErr)) {
		assert.Contains(t, domainErr.Details, "bookId")
		assert.NotContains(t, domainErr.Details, "BookID")
	}
}
