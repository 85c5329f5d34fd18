package images

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/models"
)

func newTestPixabay(t *testing.T, baseURL string) *PixabayService {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Pixabay.APIKey = "test-key"
	config.Pixabay.BaseURL = baseURL
	config.Pixabay.RateLimit = time.Millisecond
	service, err := NewPixabayService(&config.Pixabay, common.GetLogger())
	require.NoError(t, err)
	return service
}

func TestNewPixabayServiceRequiresKey(t *testing.T) {
	config := common.NewDefaultConfig()
	_, err := NewPixabayService(&config.Pixabay, common.GetLogger())
	assert.Error(t, err)
}

func TestSearchRanksByPopularity(t *testing.T) {
	response := PixabaySearchResponse{
		TotalHits: 3,
		Hits: []PixabayHit{
			{ID: 1, WebformatURL: "https://img.test/low.jpg", Likes: 2, Views: 100, User: "low"},
			{ID: 2, WebformatURL: "https://img.test/high.jpg", Likes: 90, Views: 50000, User: "high"},
			{ID: 3, WebformatURL: "https://img.test/mid.jpg", Likes: 40, Views: 9000, User: "mid"},
		},
	}

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "photo", r.URL.Query().Get("image_type"))
		assert.Equal(t, "true", r.URL.Query().Get("safesearch"))
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	service := newTestPixabay(t, server.URL)
	candidates, err := service.Search(context.Background(), []string{"solar", "panels"}, 2)
	require.NoError(t, err)

	assert.Equal(t, "solar panels", gotQuery)
	require.Len(t, candidates, 2)
	assert.Equal(t, "high", candidates[0].Photographer)
	assert.Equal(t, "mid", candidates[1].Photographer)
}

func TestSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PixabaySearchResponse{})
	}))
	defer server.Close()

	service := newTestPixabay(t, server.URL)
	_, err := service.Search(context.Background(), []string{"nothing"}, 5)
	assert.ErrorIs(t, err, models.ErrImageResolution)
}

func TestSearchEmptyKeywords(t *testing.T) {
	service := newTestPixabay(t, "http://unused.invalid")
	_, err := service.Search(context.Background(), nil, 5)
	assert.ErrorIs(t, err, models.ErrImageResolution)
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := newTestPixabay(t, server.URL)
	_, err := service.Search(context.Background(), []string{"solar"}, 5)
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	imageBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imageBytes)
	}))
	defer server.Close()

	service := newTestPixabay(t, server.URL)
	data, ext, err := service.Download(context.Background(), models.ImageCandidate{URL: server.URL + "/img.jpg"})
	require.NoError(t, err)
	assert.Equal(t, imageBytes, data)
	assert.Equal(t, "jpg", ext)
}

func TestDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	service := newTestPixabay(t, server.URL)
	_, _, err := service.Download(context.Background(), models.ImageCandidate{URL: server.URL + "/gone.jpg"})
	assert.Error(t, err)
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		contentType string
		url         string
		want        string
	}{
		{"image/png", "https://x.test/a", "png"},
		{"image/jpeg", "https://x.test/a", "jpg"},
		{"image/webp", "https://x.test/a", "webp"},
		{"", "https://x.test/photo.PNG", "png"},
		{"", "https://x.test/photo.jpeg", "jpg"},
		{"application/octet-stream", "https://x.test/file", "jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionFor(tt.contentType, tt.url), "%s %s", tt.contentType, tt.url)
	}
}
