package search_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"research-backend/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Query      string `json:"query"`
			MaxResults int    `json:"max_results"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "solar sails", body.Query)
		assert.Equal(t, 3, body.MaxResults)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"url": "https://example.com/a", "title": "A", "content": "alpha"},
				{"url": "https://example.com/b", "title": "B", "content": "bravo"},
			},
		})
	}))
	defer server.Close()

	provider, err := search.NewHTTPProvider(search.HTTPProviderOptions{
		BaseURL: server.URL,
		APIKey:  "test-key",
	})
	require.NoError(t, err)

	results, err := provider.Search(context.Background(), "solar sails", 3)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example.com/a", results[0].URL)
	assert.Equal(t, "alpha", results[0].Content)
}

func TestHTTPProviderReportsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider, err := search.NewHTTPProvider(search.HTTPProviderOptions{
		BaseURL: server.URL,
		APIKey:  "test-key",
	})
	require.NoError(t, err)

	_, err = provider.Search(context.Background(), "anything", 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestHTTPProviderRequiresAPIKey(t *testing.T) {
	_, err := search.NewHTTPProvider(search.HTTPProviderOptions{})
	require.Error(t, err)
}
