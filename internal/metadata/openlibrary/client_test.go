package openlibrary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
	"numFound": 2,
	"docs": [
		{
			"key": "/works/OL893415W",
			"title": "Dune",
			"author_name": ["Frank Herbert"],
			"cover_i": 11481354
		},
		{
			"key": "/works/OL46125W",
			"title": "Anonymous Pamphlet"
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Options{BaseURL: server.URL})
}

func TestClient_Search(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		wantCount  int
		wantErr    error
	}{
		{
			name:       "successful search",
			response:   searchFixture,
			statusCode: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "empty results",
			response:   `{"numFound": 0, "docs": []}`,
			statusCode: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			wantErr:    ErrRateLimited,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			wantErr:    ErrServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.response != "" {
					_, _ = w.Write([]byte(tt.response))
				}
			})

			books, err := client.Search(context.Background(), "dune", 20)

			if tt.wantErr != nil {
				require.Error(t, err)
				var olErr *Error
				require.ErrorAs(t, err, &olErr)
				assert.ErrorIs(t, olErr.Err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, books, tt.wantCount)
		})
	}
}

func TestClient_Search_Normalization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchFixture))
	})

	books, err := client.Search(context.Background(), "dune", 20)
	require.NoError(t, err)
	require.Len(t, books, 2)

	full := books[0]
	assert.Equal(t, "/works/OL893415W", full.ExternalID)
	assert.Equal(t, "Dune", full.Title)
	assert.Equal(t, []string{"Frank Herbert"}, full.Authors)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/11481354-M.jpg", full.ThumbnailURL)
	assert.Equal(t, DescriptionPlaceholder, full.Description)

	// Missing author and cover fall back to sentinel / empty.
	sparse := books[1]
	assert.Equal(t, []string{AuthorFallback}, sparse.Authors)
	assert.Empty(t, sparse.ThumbnailURL)
	assert.Equal(t, DescriptionPlaceholder, sparse.Description)
}

func TestClient_Search_PassesQueryAndLimit(t *testing.T) {
	var gotQuery, gotLimit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"docs": []}`))
	})

	_, err := client.Search(context.Background(), "frank herbert", 0)
	require.NoError(t, err)

	assert.Equal(t, "frank herbert", gotQuery)
	assert.Equal(t, "20", gotLimit, "zero limit defaults to the max")
}

func TestClient_Search_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "dune", 20)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrServer))
}
