package acquire

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// Aggregator merges acquired content into one capped context block.
// Sources are consumed in priority order: scraped web content first, then
// the caller's own text, then upload extractions, then the encyclopedic
// fallback. Once the cap is hit, remaining sources contribute nothing.
type Aggregator struct {
	maxChars int
	logger   arbor.ILogger
}

// NewAggregator creates an aggregator from the application config
func NewAggregator(config *common.Config, logger arbor.ILogger) *Aggregator {
	return &Aggregator{
		maxChars: config.Generation.MaxContextChars,
		logger:   logger,
	}
}

// Aggregate builds the generation context from whatever sources are present
func (a *Aggregator) Aggregate(ctx context.Context, input interfaces.AggregateInput) *models.AggregatedContent {
	result := &models.AggregatedContent{}
	var builder strings.Builder

	appendSource := func(sourceType, label, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		separator := ""
		if builder.Len() > 0 {
			separator = "\n\n"
		}
		remaining := a.maxChars - builder.Len() - len(separator)
		if remaining <= 0 {
			result.Truncated = true
			return
		}
		if len(text) > remaining {
			text = truncateAtRune(text, remaining)
			result.Truncated = true
		}
		builder.WriteString(separator)
		builder.WriteString(text)
		result.Contributions = append(result.Contributions, models.SourceContribution{
			SourceType: sourceType,
			Label:      label,
			Chars:      len(text),
		})
	}

	for _, page := range input.Web {
		appendSource(models.SourceTypeWeb, page.URL, CombinedText(page))
	}
	if input.UserText != "" {
		appendSource(models.SourceTypeUserText, "user text", input.UserText)
	}
	if input.Upload != nil {
		appendSource(models.SourceTypeUpload, input.Upload.Filename, input.Upload.Text)
	}
	if input.Encyclopedic != nil {
		appendSource(models.SourceTypeEncyclopedic, input.Encyclopedic.Title, input.Encyclopedic.Summary)
	}

	result.Text = builder.String()

	a.logger.Debug().
		Int("chars", len(result.Text)).
		Int("sources", len(result.Contributions)).
		Bool("truncated", result.Truncated).
		Msg("Aggregated source content")

	return result
}

// truncateAtRune cuts s to at most max bytes without splitting a UTF-8 rune
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
