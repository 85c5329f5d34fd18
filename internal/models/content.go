package models

import "time"

// SourceType identifies where aggregated content came from
const (
	SourceTypeWeb          = "web"
	SourceTypeEncyclopedic = "encyclopedic"
	SourceTypeUpload       = "upload"
	SourceTypeUserText     = "user_text"
)

// Heading is a single extracted heading with its level (1-6)
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// WebContent holds the structured result of scraping a single page
type WebContent struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Headings    []Heading `json:"headings,omitempty"`
	Paragraphs  []string  `json:"paragraphs,omitempty"`
	Markdown    string    `json:"markdown,omitempty"` // page body converted to markdown
	FetchedAt   time.Time `json:"fetched_at"`
}

// EncyclopedicArticle is one article contributing to an encyclopedic lookup
type EncyclopedicArticle struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     string `json:"url,omitempty"`
}

// EncyclopedicContent holds topic material fetched from the encyclopedia API.
// Summary is the combined text of all matched articles with per-article
// section markers; Articles carries the per-article breakdown.
type EncyclopedicContent struct {
	Topic     string                `json:"topic"`
	Title     string                `json:"title"` // best-match article title
	Summary   string                `json:"summary"`
	Articles  []EncyclopedicArticle `json:"articles,omitempty"`
	URL       string                `json:"url,omitempty"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// UploadContent holds text extracted from an uploaded PDF or DOCX file
type UploadContent struct {
	Filename  string `json:"filename"`
	Format    string `json:"format"` // "pdf" or "docx"
	Text      string `json:"text"`
	PageCount int    `json:"page_count,omitempty"`
}

// SourceContribution records one source's slice of the aggregated context
type SourceContribution struct {
	SourceType string `json:"source_type"`
	Label      string `json:"label"` // URL, topic, or filename
	Chars      int    `json:"chars"`
}

// AggregatedContent is the merged, capped context handed to the outline generator
type AggregatedContent struct {
	Text          string               `json:"text"`
	Contributions []SourceContribution `json:"contributions"`
	Truncated     bool                 `json:"truncated"`
}

// HasContent reports whether any source contributed text
func (a *AggregatedContent) HasContent() bool {
	return a != nil && len(a.Text) > 0
}
