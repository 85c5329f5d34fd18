package acquire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecraft/slidecraft/internal/common"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"The history of the Roman Empire", []string{"history", "roman", "empire"}},
		{"AI presentation slides about machine learning", []string{"machine", "learning"}},
		{"PowerPoint ppt presentation", nil},
		{"climate change", []string{"climate", "change"}},
		{"", nil},
		{"a an to of", nil},
	}

	for _, tt := range tests {
		got := ExtractKeywords(tt.input)
		if tt.want == nil {
			assert.Empty(t, got, "input %q", tt.input)
		} else {
			assert.Equal(t, tt.want, got, "input %q", tt.input)
		}
	}
}

// newWikipediaTestServer serves the search endpoint under /search and article
// summaries under /summary/<title>. A nil searchResults makes the search fail.
func newWikipediaTestServer(t *testing.T, searchResults []map[string]string, pages map[string]summaryResponse) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if searchResults == nil {
			http.Error(w, "search unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"pages": searchResults})
	})
	mux.HandleFunc("/summary/", func(w http.ResponseWriter, r *http.Request) {
		title := strings.TrimPrefix(r.URL.Path, "/summary/")
		page, ok := pages[title]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})
	return httptest.NewServer(mux)
}

func newTestWikipedia(t *testing.T, server *httptest.Server) *WikipediaService {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Wikipedia.BaseURL = server.URL + "/summary"
	config.Wikipedia.SearchURL = server.URL + "/search"
	return NewWikipediaService(config, common.GetLogger())
}

func TestLookupCombinesArticles(t *testing.T) {
	search := []map[string]string{
		{"title": "Roman Empire", "key": "Roman_Empire"},
		{"title": "Roman Republic", "key": "Roman_Republic"},
	}
	pages := map[string]summaryResponse{
		"Roman_Empire":   {Title: "Roman Empire", Extract: "The Roman Empire was the post-Republican period of ancient Rome."},
		"Roman_Republic": {Title: "Roman Republic", Extract: "The Roman Republic preceded the empire."},
	}
	server := newWikipediaTestServer(t, search, pages)
	defer server.Close()

	service := newTestWikipedia(t, server)
	content, err := service.Lookup(context.Background(), "the Roman Empire presentation")
	require.NoError(t, err)

	assert.Equal(t, "the Roman Empire presentation", content.Topic)
	assert.Equal(t, "Roman Empire", content.Title)
	require.Len(t, content.Articles, 2)
	assert.Equal(t, "Roman Republic", content.Articles[1].Title)

	// The combined summary carries a section marker per article
	assert.Contains(t, content.Summary, "== Roman Empire ==")
	assert.Contains(t, content.Summary, "== Roman Republic ==")
	assert.Contains(t, content.Summary, "post-Republican")
	assert.Contains(t, content.Summary, "preceded the empire")
}

func TestLookupSkipsMissingArticles(t *testing.T) {
	search := []map[string]string{
		{"title": "Solar power", "key": "Solar_power"},
		{"title": "Gone page", "key": "Gone_page"},
	}
	pages := map[string]summaryResponse{
		"Solar_power": {Title: "Solar power", Extract: "Energy from the sun."},
	}
	server := newWikipediaTestServer(t, search, pages)
	defer server.Close()

	service := newTestWikipedia(t, server)
	content, err := service.Lookup(context.Background(), "solar power")
	require.NoError(t, err)
	require.Len(t, content.Articles, 1)
	assert.Equal(t, "Solar power", content.Articles[0].Title)
}

func TestLookupFallsBackToDirectTitle(t *testing.T) {
	pages := map[string]summaryResponse{
		"roman_empire": {Title: "Roman Empire", Extract: "The Roman Empire was the post-Republican period of ancient Rome."},
	}
	server := newWikipediaTestServer(t, nil, pages)
	defer server.Close()

	// Search is down, the keyword query still resolves as a direct title
	service := newTestWikipedia(t, server)
	content, err := service.Lookup(context.Background(), "the Roman Empire presentation")
	require.NoError(t, err)
	assert.Equal(t, "Roman Empire", content.Title)
	require.Len(t, content.Articles, 1)
}

func TestLookupMiss(t *testing.T) {
	server := newWikipediaTestServer(t, nil, nil)
	defer server.Close()

	service := newTestWikipedia(t, server)
	_, err := service.Lookup(context.Background(), "nonexistent subject matter")
	assert.Error(t, err)
}
