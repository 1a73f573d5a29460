package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "최근 근로기준법 개정", req.Query)
		assert.Equal(t, 3, req.MaxResults)

		json.NewEncoder(w).Encode(SearchResponse{Results: []Result{
			{Title: "개정 소식", URL: "https://example.com/1", Content: "내용", Score: 0.92},
			{Title: "해설", URL: "https://example.com/2", Content: "내용", Score: 0.81},
		}})
	}))
	defer server.Close()

	client := NewTavilyClient("test-key", time.Second)
	client.endpoint = server.URL

	results, err := client.Search(context.Background(), "최근 근로기준법 개정", 3)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "개정 소식", results[0].Title)
	assert.InDelta(t, 0.92, results[0].Score, 1e-9)
}

func TestTavilySearchTruncatesToMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{Results: []Result{
			{Title: "a", Score: 0.9}, {Title: "b", Score: 0.8}, {Title: "c", Score: 0.7},
		}})
	}))
	defer server.Close()

	client := NewTavilyClient("test-key", time.Second)
	client.endpoint = server.URL

	results, err := client.Search(context.Background(), "질문", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestTavilySearchProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewTavilyClient("test-key", time.Second)
	client.endpoint = server.URL

	_, err := client.Search(context.Background(), "질문", 3)
	assert.ErrorIs(t, err, ErrSearchFailed)
}
