package interfaces

import (
	"context"

	"github.com/slidecraft/slidecraft/internal/models"
)

// PolicyDecision is the result of a robots.txt check for a target URL
type PolicyDecision struct {
	URL     string `json:"url"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// PolicyGate decides whether a URL may be scraped.
// The gate fails closed: any error fetching or parsing robots.txt
// results in a disallow decision.
type PolicyGate interface {
	Check(ctx context.Context, rawURL string) PolicyDecision
	FetchRaw(ctx context.Context, rawURL string) (string, error)
}

// WebAcquirer scrapes structured content from a single web page
type WebAcquirer interface {
	Scrape(ctx context.Context, rawURL string) (*models.WebContent, error)
}

// EncyclopedicAcquirer looks up a topic summary from the encyclopedia API
type EncyclopedicAcquirer interface {
	Lookup(ctx context.Context, topic string) (*models.EncyclopedicContent, error)
}

// UploadExtractor pulls plain text out of an uploaded PDF or DOCX file
type UploadExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*models.UploadContent, error)
}

// AggregateInput carries the raw material for one aggregation pass.
// Web holds the successfully scraped pages in request order; blocked or
// failed URLs simply do not appear.
type AggregateInput struct {
	Web          []*models.WebContent
	UserText     string
	Upload       *models.UploadContent
	Encyclopedic *models.EncyclopedicContent
}

// Aggregator merges acquired content into a single capped context block
type Aggregator interface {
	Aggregate(ctx context.Context, input AggregateInput) *models.AggregatedContent
}
