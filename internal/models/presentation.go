package models

import (
	"fmt"
	"strings"
	"time"
)

// Slide layouts
const (
	LayoutTitleContent = "title-content"
	LayoutContentOnly  = "content-only"
	LayoutImageFocus   = "image-focus"
	LayoutChart        = "chart"
)

// Theme names accepted by the renderer
const (
	ThemeModern       = "modern"
	ThemeDark         = "dark"
	ThemeProfessional = "professional"
	ThemeBusiness     = "business"
	ThemeAcademic     = "academic"
	ThemeMinimal      = "minimal"
	ThemeCreative     = "creative"
)

// ValidThemes lists every theme the renderer can apply
var ValidThemes = []string{
	ThemeModern, ThemeDark, ThemeProfessional, ThemeBusiness,
	ThemeAcademic, ThemeMinimal, ThemeCreative,
}

// IsValidTheme reports whether name is a known renderer theme
func IsValidTheme(name string) bool {
	for _, t := range ValidThemes {
		if t == name {
			return true
		}
	}
	return false
}

// ImageCandidate is one resolved image option for a slide
type ImageCandidate struct {
	URL          string `json:"url"`                // stored or remote image URL
	PreviewURL   string `json:"preview_url,omitempty"`
	SourcePageURL string `json:"source_page_url,omitempty"`
	Photographer string `json:"photographer,omitempty"`
	Tags         string `json:"tags,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// ChartData describes an optional data chart rendered after the content slides
type ChartData struct {
	Title  string    `json:"title"`
	Type   string    `json:"type"` // "bar", "line" or "pie"
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Validate checks chart shape before rendering
func (c *ChartData) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Type {
	case "bar", "line", "pie":
	default:
		return fmt.Errorf("unsupported chart type: %s", c.Type)
	}
	if len(c.Labels) == 0 || len(c.Labels) != len(c.Values) {
		return fmt.Errorf("chart labels and values must be non-empty and equal length")
	}
	return nil
}

// Slide is one slide of a generated presentation
type Slide struct {
	SlideNumber     int              `json:"slide_number"` // 1-based, contiguous
	Title           string           `json:"title"`
	Content         []string         `json:"content"` // bullet points
	Layout          string           `json:"layout"`
	ImageKeywords   []string         `json:"image_keywords,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"` // stored image path, if resolved
	SuggestedImages []ImageCandidate `json:"suggested_images,omitempty"`
	SpeakerNotes    string           `json:"speaker_notes,omitempty"`
}

// SlidePatch carries the editable fields of a slide update. Nil means unchanged.
type SlidePatch struct {
	Title        *string   `json:"title,omitempty"`
	Content      *[]string `json:"content,omitempty"`
	Layout       *string   `json:"layout,omitempty"`
	SpeakerNotes *string   `json:"speaker_notes,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
}

// SlideSpec is the caller's request for a new presentation
type SlideSpec struct {
	Topic       string     `json:"topic" validate:"required,min=2,max=300"`
	SlideCount  int        `json:"slide_count" validate:"required,min=1,max=30"`
	Theme       string     `json:"theme,omitempty"`
	BrandColors []string   `json:"brand_colors,omitempty" validate:"omitempty,max=2,dive,hexcolor"`
	URLs        []string   `json:"urls,omitempty" validate:"omitempty,max=5,dive,url"`
	UserText    string     `json:"user_text,omitempty"`
	UploadID    string     `json:"upload_id,omitempty"`
	Chart       *ChartData `json:"chart,omitempty"`
}

// Presentation is the stored record for a generated deck
type Presentation struct {
	ID      string `json:"id" badgerhold:"key"` // pres_{uuid}
	OwnerID string `json:"owner_id" badgerhold:"index"`

	Topic       string   `json:"topic"`
	Theme       string   `json:"theme"`
	BrandColors []string `json:"brand_colors,omitempty"` // hex colors overriding the theme title and accent

	Slides []Slide    `json:"slides"`
	Chart  *ChartData `json:"chart,omitempty"`

	// Provenance
	Sources   []SourceContribution `json:"sources,omitempty"`
	Truncated bool                 `json:"truncated,omitempty"`

	// Rendering
	DeckPath       string   `json:"deck_path,omitempty"` // rendered file on disk
	RenderWarnings []string `json:"render_warnings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlideByNumber returns the slide with the given 1-based number
func (p *Presentation) SlideByNumber(n int) (*Slide, bool) {
	for i := range p.Slides {
		if p.Slides[i].SlideNumber == n {
			return &p.Slides[i], true
		}
	}
	return nil, false
}

// Renumber restores contiguous 1-based slide numbers after a deletion
func (p *Presentation) Renumber() {
	for i := range p.Slides {
		p.Slides[i].SlideNumber = i + 1
	}
}

// Summary returns a compact listing snapshot without slide bodies
func (p *Presentation) Summary() PresentationSummary {
	return PresentationSummary{
		ID:         p.ID,
		Topic:      p.Topic,
		Theme:      p.Theme,
		SlideCount: len(p.Slides),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// PresentationSummary is the list-endpoint projection of a presentation
type PresentationSummary struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Theme      string    `json:"theme"`
	SlideCount int       `json:"slide_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NormalizeTheme maps an empty or unknown theme to the default
func NormalizeTheme(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if !IsValidTheme(name) {
		return ThemeModern
	}
	return name
}
