package character_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatelink/gatelink/internal/character"
)

// newAPIStub serves two pages of characters with info.next cursors.
func newAPIStub(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/character/7" {
			json.NewEncoder(w).Encode(character.Character{ID: 7, Name: "Abradolf Lincler"})
			return
		}
		if r.URL.Path != "/character" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "There is nothing here"}`))
			return
		}
		if r.URL.Query().Get("name") == "nobody" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "There is nothing here"}`))
			return
		}

		page := r.URL.Query().Get("page")
		switch page {
		case "", "1":
			json.NewEncoder(w).Encode(map[string]any{
				"info": map[string]any{
					"count": 3,
					"pages": 2,
					"next":  server.URL + "/character?page=2",
				},
				"results": []map[string]any{
					{"id": 1, "name": "Rick Sanchez", "status": "Alive"},
					{"id": 2, "name": "Morty Smith", "status": "Alive"},
				},
			})
		case "2":
			json.NewEncoder(w).Encode(map[string]any{
				"info": map[string]any{
					"count": 3,
					"pages": 2,
					"next":  "",
				},
				"results": []map[string]any{
					{"id": 3, "name": "Summer Smith", "status": "Alive"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server
}

func newClient(baseURL string) *character.Client {
	return character.NewClient(character.ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})
}

func TestClient_ListPage(t *testing.T) {
	server := newAPIStub(t)
	defer server.Close()

	characters, next, err := newClient(server.URL).ListPage(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, characters, 2)
	assert.Equal(t, "Rick Sanchez", characters[0].Name)
	assert.Equal(t, 2, next)
}

func TestClient_ListPageLastPage(t *testing.T) {
	server := newAPIStub(t)
	defer server.Close()

	characters, next, err := newClient(server.URL).ListPage(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Len(t, characters, 1)
	assert.Equal(t, 0, next)
}

func TestClient_ListPageEmptyFilterResult(t *testing.T) {
	server := newAPIStub(t)
	defer server.Close()

	// The API answers an empty filter with 404; the client reports an
	// empty listing, not an error.
	characters, next, err := newClient(server.URL).ListPage(context.Background(), 1, "nobody")
	require.NoError(t, err)
	assert.Empty(t, characters)
	assert.Zero(t, next)
}

func TestClient_Get(t *testing.T) {
	server := newAPIStub(t)
	defer server.Close()

	c, err := newClient(server.URL).Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Abradolf Lincler", c.Name)
}

func TestClient_GetNotFound(t *testing.T) {
	server := newAPIStub(t)
	defer server.Close()

	_, err := newClient(server.URL).Get(context.Background(), 9999)
	require.ErrorIs(t, err, character.ErrNotFound)
}

func TestQueries_CursorWalk(t *testing.T) {
	server := newAPIStub(t)
	defer server.Close()

	q := newClient(server.URL).Queries().Query("")
	ctx := context.Background()

	require.NoError(t, q.FetchNextPage(ctx))
	assert.True(t, q.HasNextPage())

	require.NoError(t, q.FetchNextPage(ctx))
	state := q.State()
	assert.False(t, state.HasNextPage)
	require.Len(t, state.Items, 3)

	// Cursor order preserved across pages.
	names := make([]string, 0, 3)
	for _, c := range state.Items {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Rick Sanchez", "Morty Smith", "Summer Smith"}, names)
}

func TestNextPageParsing(t *testing.T) {
	server := newAPIStub(t)
	defer server.Close()
	client := newClient(server.URL)

	// Walk until exhaustion; must terminate.
	page := 1
	total := 0
	for page > 0 {
		characters, next, err := client.ListPage(context.Background(), page, "")
		require.NoError(t, err)
		total += len(characters)
		page = next
	}
	assert.Equal(t, 3, total)
}
