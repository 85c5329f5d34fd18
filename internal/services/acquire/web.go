package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/httpclient"
	"github.com/slidecraft/slidecraft/internal/models"
)

const (
	minHeadingLen   = 3  // headings at or below this length are noise
	minParagraphLen = 20 // paragraphs at or below this length are snippets
)

// WebScraper extracts structured content from a single page.
// Policy checks happen upstream; the scraper assumes the URL is allowed.
type WebScraper struct {
	client        *http.Client
	converter     *md.Converter
	maxBodySize   int
	maxHeadings   int
	maxParagraphs int
	logger        arbor.ILogger
}

// NewWebScraper creates a scraper from the application config
func NewWebScraper(config *common.Config, logger arbor.ILogger) *WebScraper {
	return &WebScraper{
		client:        httpclient.NewHTTPClientWithUserAgent(config.Scraper.RequestTimeout, config.Scraper.UserAgent),
		converter:     md.NewConverter("", true, nil),
		maxBodySize:   config.Scraper.MaxBodySize,
		maxHeadings:   config.Scraper.MaxHeadings,
		maxParagraphs: config.Scraper.MaxParagraphs,
		logger:        logger,
	}
}

// Scrape fetches and extracts content from the given URL
func (s *WebScraper) Scrape(ctx context.Context, rawURL string) (*models.WebContent, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	s.logger.Debug().Str("url", rawURL).Msg("Scraping page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.FetchError{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return nil, &models.ParseError{Source: rawURL, Err: fmt.Errorf("unsupported content type: %s", contentType)}
	}

	body := io.LimitReader(resp.Body, int64(s.maxBodySize))
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &models.ParseError{Source: rawURL, Err: err}
	}

	content := s.extract(doc)
	content.URL = rawURL
	content.FetchedAt = time.Now()
	return content, nil
}

// extract pulls title, headings, paragraphs and metadata out of the document
func (s *WebScraper) extract(doc *goquery.Document) *models.WebContent {
	// Drop noise elements before extraction
	doc.Find("script, style, nav, footer, header").Remove()

	content := &models.WebContent{}

	// Title from <title>, falling back to the first h1
	content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if content.Title == "" {
		content.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	// Meta description
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		content.Description = strings.TrimSpace(desc)
	}

	// Headings h1-h3, skipping short noise
	for level := 1; level <= 3; level++ {
		selector := fmt.Sprintf("h%d", level)
		lvl := level
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if len(content.Headings) >= s.maxHeadings {
				return
			}
			text := strings.TrimSpace(sel.Text())
			if len(text) > minHeadingLen {
				content.Headings = append(content.Headings, models.Heading{Level: lvl, Text: text})
			}
		})
	}

	// Paragraphs from the main content area when one exists
	scope := doc.Selection
	if main := doc.Find("main, article, div.content").First(); main.Length() > 0 {
		scope = main
	}
	scope.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if len(content.Paragraphs) >= s.maxParagraphs {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) > minParagraphLen {
			content.Paragraphs = append(content.Paragraphs, text)
		}
	})

	// Markdown rendering of the cleaned body for downstream context
	if body := doc.Find("body"); body.Length() > 0 {
		if markdown := s.converter.Convert(body); markdown != "" {
			content.Markdown = markdown
		}
	}

	return content
}

// CombinedText renders the scrape result as context for outline generation
func CombinedText(content *models.WebContent) string {
	if content == nil {
		return ""
	}

	var builder strings.Builder
	if content.Title != "" {
		builder.WriteString("# " + content.Title + "\n\n")
	}
	builder.WriteString("Source: " + content.URL + "\n\n")

	if len(content.Headings) > 0 {
		builder.WriteString("## Key Topics:\n")
		limit := len(content.Headings)
		if limit > 10 {
			limit = 10
		}
		for _, h := range content.Headings[:limit] {
			builder.WriteString("- " + h.Text + "\n")
		}
		builder.WriteString("\n")
	}

	for _, p := range content.Paragraphs {
		builder.WriteString(p + "\n\n")
	}

	return strings.TrimSpace(builder.String())
}
