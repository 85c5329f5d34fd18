package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/httpclient"
	"github.com/slidecraft/slidecraft/internal/models"
)

// maxDownloadSize caps a single image download
const maxDownloadSize = 15 * 1024 * 1024

// PixabayService resolves slide images through the Pixabay API.
// All failures are soft: callers treat an empty result as "no image"
// rather than aborting the pipeline.
type PixabayService struct {
	config     *common.PixabayConfig
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewPixabayService creates a new Pixabay image resolver
func NewPixabayService(config *common.PixabayConfig, logger arbor.ILogger) (*PixabayService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Pixabay API key is required (set via SLIDECRAFT_PIXABAY_API_KEY, PIXABAY_API_KEY, or pixabay.api_key in config)")
	}

	return &PixabayService{
		config:     config,
		logger:     logger,
		httpClient: httpclient.NewDefaultHTTPClient(config.RequestTimeout),
		limiter:    rate.NewLimiter(rate.Every(config.RateLimit), 1),
	}, nil
}

// Search returns up to max candidates for the given keywords, best first.
// Candidates are ranked by likes plus scaled views, matching how a person
// would pick the most popular stock image.
func (s *PixabayService) Search(ctx context.Context, keywords []string, max int) ([]models.ImageCandidate, error) {
	query := strings.TrimSpace(strings.Join(keywords, " "))
	if query == "" {
		return nil, models.ErrImageResolution
	}
	if max <= 0 {
		max = s.config.MaxCandidates
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	params := url.Values{}
	params.Set("key", s.config.APIKey)
	params.Set("q", query)
	params.Set("per_page", fmt.Sprintf("%d", s.config.PerPage))
	params.Set("image_type", "photo")
	params.Set("orientation", "horizontal")
	params.Set("safesearch", "true")

	endpoint := s.config.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.FetchError{URL: s.config.BaseURL, Err: err}
	}

	s.logger.Debug().Str("query", query).Msg("Searching Pixabay")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: s.config.BaseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.FetchError{URL: s.config.BaseURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var result PixabaySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.ParseError{Source: s.config.BaseURL, Err: err}
	}

	if len(result.Hits) == 0 {
		s.logger.Debug().Str("query", query).Msg("No Pixabay results")
		return nil, models.ErrImageResolution
	}

	// Rank by likes plus scaled views
	hits := result.Hits
	sort.SliceStable(hits, func(i, j int) bool {
		return score(hits[i]) > score(hits[j])
	})

	if len(hits) > max {
		hits = hits[:max]
	}

	candidates := make([]models.ImageCandidate, 0, len(hits))
	for _, hit := range hits {
		imageURL := hit.WebformatURL
		if imageURL == "" {
			imageURL = hit.LargeImageURL
		}
		if imageURL == "" {
			continue
		}
		candidates = append(candidates, models.ImageCandidate{
			URL:           imageURL,
			PreviewURL:    hit.PreviewURL,
			SourcePageURL: hit.PageURL,
			Photographer:  hit.User,
			Tags:          hit.Tags,
			Width:         hit.WebformatWidth,
			Height:        hit.WebformatHeight,
		})
	}

	if len(candidates) == 0 {
		return nil, models.ErrImageResolution
	}

	s.logger.Debug().Str("query", query).Int("candidates", len(candidates)).Msg("Resolved image candidates")
	return candidates, nil
}

func score(hit PixabayHit) float64 {
	return float64(hit.Likes) + float64(hit.Views)/1000
}

// Download fetches the image bytes for a candidate and reports the extension
func (s *PixabayService) Download(ctx context.Context, candidate models.ImageCandidate) ([]byte, string, error) {
	if candidate.URL == "" {
		return nil, "", models.ErrImageResolution
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.URL, nil)
	if err != nil {
		return nil, "", &models.FetchError{URL: candidate.URL, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", &models.FetchError{URL: candidate.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &models.FetchError{URL: candidate.URL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, "", &models.FetchError{URL: candidate.URL, Err: err}
	}

	ext := extensionFor(resp.Header.Get("Content-Type"), candidate.URL)
	return data, ext, nil
}

// extensionFor picks a file extension from the content type, falling back
// to the URL path
func extensionFor(contentType, imageURL string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return "jpg"
	}

	if parsed, err := url.Parse(imageURL); err == nil {
		path := strings.ToLower(parsed.Path)
		for _, ext := range []string{"png", "gif", "webp", "jpeg", "jpg"} {
			if strings.HasSuffix(path, "."+ext) {
				if ext == "jpeg" {
					return "jpg"
				}
				return ext
			}
		}
	}
	return "jpg"
}
