package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

const systemPrompt = "You are a presentation designer. You produce tight, well-structured slide outlines and respond with valid JSON only."

const promptTemplate = `Create a detailed presentation outline for: "%s"

Generate exactly %d slides with this JSON format:
{
    "title": "Presentation Title",
    "slides": [
        {
            "slide_number": 1,
            "title": "Slide Title",
            "content": ["Bullet 1", "Bullet 2", "Bullet 3"],
            "image_keywords": "keywords for image search",
            "speaker_notes": "What to say about this slide"
        }
    ]
}

Return ONLY valid JSON, no additional text.`

const retryReminder = "\n\nYour previous response was not valid JSON. Respond with the JSON object only, no markdown fences and no commentary."

// Service generates slide outlines through the configured LLM provider.
// The returned outline always has exactly the requested number of slides:
// short responses are padded with section stubs, long ones are truncated.
type Service struct {
	llm     interfaces.LLMService
	retries int
	backoff time.Duration
	logger  arbor.ILogger
}

// NewService creates an outline service on top of an LLM provider
func NewService(llm interfaces.LLMService, retries int, logger arbor.ILogger) *Service {
	if retries < 0 {
		retries = 0
	}
	return &Service{
		llm:     llm,
		retries: retries,
		backoff: 500 * time.Millisecond,
		logger:  logger,
	}
}

// wireSlide is the JSON shape the model is asked to produce
type wireSlide struct {
	SlideNumber   int             `json:"slide_number"`
	Title         string          `json:"title"`
	Content       []string        `json:"content"`
	ImageKeywords json.RawMessage `json:"image_keywords"`
	SpeakerNotes  string          `json:"speaker_notes"`
}

type wireOutline struct {
	Title  string      `json:"title"`
	Slides []wireSlide `json:"slides"`
}

// GenerateOutline asks the model for an outline and normalizes the result.
// A models.GenerationError is returned when no attempt produced usable JSON;
// the caller must abort the pipeline in that case.
func (s *Service) GenerateOutline(ctx context.Context, topic string, sourceContext string, slideCount int) ([]models.Slide, error) {
	prompt := fmt.Sprintf(promptTemplate, topic, slideCount)
	if sourceContext != "" {
		prompt += "\n\nBase the outline on this source material:\n\n" + sourceContext
	}

	attempts := 0
	var lastErr error
	for attempts <= s.retries {
		attempts++
		attemptPrompt := prompt
		if attempts > 1 {
			attemptPrompt += retryReminder
			select {
			case <-ctx.Done():
				return nil, &models.GenerationError{Attempts: attempts - 1, Err: ctx.Err()}
			case <-time.After(s.backoff):
			}
		}

		response, err := s.llm.Complete(ctx, systemPrompt, attemptPrompt)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Int("attempt", attempts).Msg("Outline completion failed")
			continue
		}

		outline, err := parseOutline(response)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Int("attempt", attempts).Msg("Outline response was not valid JSON")
			continue
		}

		slides := normalizeSlides(outline, topic, slideCount)
		s.logger.Info().
			Str("topic", topic).
			Int("slides", len(slides)).
			Int("attempts", attempts).
			Msg("Generated presentation outline")
		return slides, nil
	}

	return nil, &models.GenerationError{Attempts: attempts, Err: lastErr}
}

// parseOutline decodes the model response, tolerating markdown code fences
func parseOutline(content string) (*wireOutline, error) {
	content = stripCodeFence(strings.TrimSpace(content))

	var outline wireOutline
	if err := json.Unmarshal([]byte(content), &outline); err != nil {
		return nil, fmt.Errorf("failed to parse outline JSON: %w", err)
	}
	if len(outline.Slides) == 0 {
		return nil, fmt.Errorf("outline has no slides")
	}
	return &outline, nil
}

// stripCodeFence removes a surrounding ``` or ```json block if present
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	// Drop the opening fence line and a trailing fence line
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	body := strings.Join(lines, "\n")
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}

// normalizeSlides converts the wire outline into exactly slideCount slides
// with contiguous numbering
func normalizeSlides(outline *wireOutline, topic string, slideCount int) []models.Slide {
	slides := make([]models.Slide, 0, slideCount)

	for _, ws := range outline.Slides {
		if len(slides) >= slideCount {
			break
		}
		slide := models.Slide{
			Title:         strings.TrimSpace(ws.Title),
			Content:       ws.Content,
			Layout:        models.LayoutTitleContent,
			ImageKeywords: parseKeywords(ws.ImageKeywords, topic),
			SpeakerNotes:  strings.TrimSpace(ws.SpeakerNotes),
		}
		if slide.Title == "" {
			slide.Title = topic
		}
		slides = append(slides, slide)
	}

	// Pad short outlines with section stubs
	for len(slides) < slideCount {
		n := len(slides) + 1
		slides = append(slides, models.Slide{
			Title: fmt.Sprintf("Section %d: %s", n, topic),
			Content: []string{
				fmt.Sprintf("Key point %d.1", n),
				fmt.Sprintf("Key point %d.2", n),
				fmt.Sprintf("Key point %d.3", n),
			},
			Layout:        models.LayoutTitleContent,
			ImageKeywords: []string{topic},
			SpeakerNotes:  fmt.Sprintf("Discuss section %d of %s", n, topic),
		})
	}

	for i := range slides {
		slides[i].SlideNumber = i + 1
	}
	return slides
}

// parseKeywords accepts image_keywords as either a string or an array
func parseKeywords(raw json.RawMessage, fallback string) []string {
	if len(raw) == 0 {
		return []string{fallback}
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		single = strings.TrimSpace(single)
		if single == "" {
			return []string{fallback}
		}
		fields := strings.FieldsFunc(single, func(r rune) bool { return r == ',' })
		keywords := make([]string, 0, len(fields))
		for _, f := range fields {
			if f = strings.TrimSpace(f); f != "" {
				keywords = append(keywords, f)
			}
		}
		if len(keywords) == 0 {
			return []string{fallback}
		}
		return keywords
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		keywords := make([]string, 0, len(list))
		for _, k := range list {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) > 0 {
			return keywords
		}
	}
	return []string{fallback}
}
