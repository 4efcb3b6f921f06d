package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatelink/gatelink/internal/backend"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newClient(baseURL string, tokens backend.TokenSource, onUnauthorized func()) *backend.Client {
	return backend.New(backend.Config{
		BaseURL:        baseURL,
		HTTPClient:     http.DefaultClient,
		TokenSource:    tokens,
		OnUnauthorized: onUnauthorized,
		Logger:         zerolog.Nop(),
	})
}

func TestClient_BearerInjection(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer server.Close()

	client := newClient(server.URL, staticTokens("t1"), nil)

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/ping", nil, &out))
	assert.Equal(t, "Bearer t1", gotAuth)
	assert.Equal(t, "yes", out["ok"])
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newClient(server.URL, staticTokens(""), nil)

	require.NoError(t, client.Get(context.Background(), "/login", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestClient_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "front door", r.URL.Query().Get("search"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newClient(server.URL, nil, nil)

	query := url.Values{}
	query.Set("limit", "20")
	query.Set("search", "front door")
	require.NoError(t, client.Get(context.Background(), "/devices", query, nil))
}

func TestClient_UnauthorizedTriggersHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  401,
			"message": "unauthorized",
			"reason":  "invalid_credentials",
		})
	}))
	defer server.Close()

	hookCalls := 0
	client := newClient(server.URL, staticTokens("stale"), func() { hookCalls++ })

	err := client.Get(context.Background(), "/devices", nil, nil)

	// The hook fires before the error reaches the caller, and the caller
	// still sees the 401.
	assert.Equal(t, 1, hookCalls)
	require.Error(t, err)
	assert.True(t, backend.IsUnauthorized(err))

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Reason)
}

func TestClient_ErrorCarriesStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"status": 400, "message": "limit out of range"})
	}))
	defer server.Close()

	client := newClient(server.URL, nil, nil)

	err := client.Get(context.Background(), "/devices", nil, nil)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "limit out of range", apiErr.Message)
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":404,"message":"device not found"}`))
	}))
	defer server.Close()

	client := newClient(server.URL, nil, nil)

	err := client.Get(context.Background(), "/devices/999", nil, nil)
	assert.True(t, backend.IsNotFound(err))
	assert.False(t, backend.IsUnauthorized(err))
}

func TestClient_PostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		json.NewEncoder(w).Encode(map[string]string{"token": "t1"})
	}))
	defer server.Close()

	client := newClient(server.URL, nil, nil)

	var out map[string]string
	err := client.Post(context.Background(), "/login", map[string]string{
		"email":    "a@b.com",
		"password": "123456",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "t1", out["token"])
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := newClient(server.URL, nil, nil)

	err := client.Get(context.Background(), "/devices", nil, nil)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}
