package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/httpclient"
	"github.com/slidecraft/slidecraft/internal/models"
)

// stopWords are dropped from topics before searching the encyclopedia.
// Deck-related words are included so "AI presentation slides" searches for "AI".
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "about": {}, "as": {}, "into": {}, "through": {}, "during": {},
	"including": {}, "is": {}, "are": {}, "was": {}, "were": {}, "been": {},
	"be": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {},
	"must": {}, "can": {}, "presentation": {}, "ppt": {}, "powerpoint": {},
	"slides": {},
}

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

// ExtractKeywords strips stop words from a topic query
func ExtractKeywords(query string) []string {
	words := wordPattern.FindAllString(strings.ToLower(query), -1)
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		if _, stop := stopWords[word]; !stop {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// summaryResponse is the encyclopedia REST summary payload
type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// searchResponse is the encyclopedia title search payload
type searchResponse struct {
	Pages []struct {
		Title string `json:"title"`
		Key   string `json:"key"`
	} `json:"pages"`
}

// WikipediaService is the encyclopedic fallback content source, used when
// the caller supplies neither a URL, user text, nor an upload.
type WikipediaService struct {
	client      *http.Client
	baseURL     string
	searchURL   string
	maxArticles int
	logger      arbor.ILogger
}

// NewWikipediaService creates an encyclopedic acquirer from the application config
func NewWikipediaService(config *common.Config, logger arbor.ILogger) *WikipediaService {
	maxArticles := config.Wikipedia.MaxArticles
	if maxArticles < 1 {
		maxArticles = 1
	}
	return &WikipediaService{
		client:      httpclient.NewDefaultHTTPClient(config.Wikipedia.RequestTimeout),
		baseURL:     strings.TrimSuffix(config.Wikipedia.BaseURL, "/"),
		searchURL:   config.Wikipedia.SearchURL,
		maxArticles: maxArticles,
		logger:      logger,
	}
}

// Lookup searches the encyclopedia and combines up to the configured number
// of matching articles. Keywords are extracted from the topic first; when
// the search finds nothing the raw topic is tried as a direct title.
func (s *WikipediaService) Lookup(ctx context.Context, topic string) (*models.EncyclopedicContent, error) {
	query := topic
	if keywords := ExtractKeywords(topic); len(keywords) > 0 {
		query = strings.Join(keywords, " ")
	}

	titles, err := s.searchTitles(ctx, query)
	if err != nil {
		s.logger.Debug().Str("query", query).Err(err).Msg("Encyclopedia search failed, trying direct title")
		titles = []string{query}
	}
	if len(titles) == 0 {
		titles = []string{query}
	}

	var articles []models.EncyclopedicArticle
	var lastErr error
	for _, title := range titles {
		article, err := s.fetchSummary(ctx, title)
		if err != nil {
			lastErr = err
			s.logger.Debug().Str("title", title).Err(err).Msg("Encyclopedia article miss")
			continue
		}
		articles = append(articles, *article)
	}
	if len(articles) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no articles found for %q", topic)
		}
		return nil, lastErr
	}

	var builder strings.Builder
	for _, article := range articles {
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString("== " + article.Title + " ==\n")
		builder.WriteString(article.Extract)
	}

	return &models.EncyclopedicContent{
		Topic:     topic,
		Title:     articles[0].Title,
		Summary:   builder.String(),
		Articles:  articles,
		URL:       articles[0].URL,
		FetchedAt: time.Now(),
	}, nil
}

// searchTitles returns up to maxArticles matching article titles
func (s *WikipediaService) searchTitles(ctx context.Context, query string) ([]string, error) {
	endpoint := fmt.Sprintf("%s?q=%s&limit=%d", s.searchURL, url.QueryEscape(query), s.maxArticles)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.FetchError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.FetchError{URL: endpoint, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.ParseError{Source: endpoint, Err: err}
	}

	titles := make([]string, 0, len(result.Pages))
	for _, page := range result.Pages {
		title := page.Key
		if title == "" {
			title = page.Title
		}
		if title != "" {
			titles = append(titles, title)
		}
	}
	if len(titles) > s.maxArticles {
		titles = titles[:s.maxArticles]
	}
	return titles, nil
}

func (s *WikipediaService) fetchSummary(ctx context.Context, query string) (*models.EncyclopedicArticle, error) {
	title := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	endpoint := s.baseURL + "/" + url.PathEscape(title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.FetchError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.FetchError{URL: endpoint, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var summary summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, &models.ParseError{Source: endpoint, Err: err}
	}
	if summary.Extract == "" {
		return nil, &models.ParseError{Source: endpoint, Err: fmt.Errorf("summary has no extract")}
	}

	return &models.EncyclopedicArticle{
		Title:   summary.Title,
		Extract: summary.Extract,
		URL:     summary.ContentURLs.Desktop.Page,
	}, nil
}
