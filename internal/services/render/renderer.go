package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// Page geometry in millimeters, A4 landscape
const (
	pageWidth  = 297.0
	pageHeight = 210.0
	marginX    = 18.0
	titleY     = 22.0
	accentY    = 38.0
	contentY   = 48.0
	notesY     = 192.0
	imageX     = 190.0
	imageWidth = 88.0
)

// Renderer produces the deck file for a presentation using fpdf.
// Output is deterministic: the same presentation always produces the
// same bytes, so re-rendering after an edit is safe.
type Renderer struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.DeckRenderer = (*Renderer)(nil)

// NewRenderer creates a deck renderer
func NewRenderer(logger arbor.ILogger) *Renderer {
	return &Renderer{logger: logger}
}

// Render builds the deck: a title page, one page per slide, an optional
// chart page, and a closing page. Missing images and malformed charts are
// reported in the RenderReport instead of failing the render. A presentation
// with no slides still renders to its title and closing pages.
func (r *Renderer) Render(ctx context.Context, presentation *models.Presentation) ([]byte, *interfaces.RenderReport, error) {
	if presentation == nil {
		return nil, nil, fmt.Errorf("presentation is required")
	}

	report := &interfaces.RenderReport{}
	theme := ThemeFor(presentation.Theme).WithBrandColors(presentation.BrandColors)

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(marginX, 15, marginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(presentation.Topic, true)
	// Fixed creation date keeps output byte-stable across renders
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	// Sorted resource catalogs keep dict entry order byte-stable too
	pdf.SetCatalogSort(true)

	r.titlePage(pdf, theme, presentation)

	for i := range presentation.Slides {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		r.contentPage(pdf, theme, &presentation.Slides[i], report)
	}

	if presentation.Chart != nil {
		if err := presentation.Chart.Validate(); err != nil {
			report.Add(fmt.Sprintf("chart skipped: %v", err))
		} else {
			r.chartPage(pdf, theme, presentation.Chart)
		}
	}

	r.closingPage(pdf, theme)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.logger.Error().Err(err).Msg("Failed to generate deck output")
		return nil, nil, fmt.Errorf("failed to generate deck output: %w", err)
	}

	r.logger.Debug().
		Str("presentation_id", presentation.ID).
		Int("slides", len(presentation.Slides)).
		Int("bytes", buf.Len()).
		Int("warnings", len(report.Warnings)).
		Msg("Rendered deck")

	return buf.Bytes(), report, nil
}

func fillBackground(pdf *fpdf.Fpdf, theme Theme) {
	pdf.SetFillColor(theme.Background.R, theme.Background.G, theme.Background.B)
	pdf.Rect(0, 0, pageWidth, pageHeight, "F")
}

func (r *Renderer) titlePage(pdf *fpdf.Fpdf, theme Theme, presentation *models.Presentation) {
	pdf.AddPage()
	fillBackground(pdf, theme)

	pdf.SetTextColor(theme.Title.R, theme.Title.G, theme.Title.B)
	pdf.SetFont("Helvetica", "B", 40)
	pdf.SetXY(marginX, 80)
	pdf.MultiCell(pageWidth-2*marginX, 18, presentation.Topic, "", "C", false)

	// Accent rule under the title
	pdf.SetDrawColor(theme.Accent.R, theme.Accent.G, theme.Accent.B)
	pdf.SetLineWidth(1.2)
	pdf.Line(pageWidth/2-40, 120, pageWidth/2+40, 120)

	pdf.SetTextColor(theme.Text.R, theme.Text.G, theme.Text.B)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(marginX, 130)
	subtitle := fmt.Sprintf("%d slides", len(presentation.Slides))
	pdf.MultiCell(pageWidth-2*marginX, 8, subtitle, "", "C", false)
}

func (r *Renderer) contentPage(pdf *fpdf.Fpdf, theme Theme, slide *models.Slide, report *interfaces.RenderReport) {
	pdf.AddPage()
	fillBackground(pdf, theme)

	// Title and accent line
	pdf.SetTextColor(theme.Title.R, theme.Title.G, theme.Title.B)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetXY(marginX, titleY)
	pdf.MultiCell(pageWidth-2*marginX, 12, slide.Title, "", "L", false)

	pdf.SetDrawColor(theme.Accent.R, theme.Accent.G, theme.Accent.B)
	pdf.SetLineWidth(1.0)
	pdf.Line(marginX, accentY, pageWidth-marginX, accentY)

	// Layout selects the page geometry. Content-only suppresses the image
	// region and image-focus widens it; anything else gets the default split.
	imgX, imgWidth := imageX, imageWidth
	hasImage := slide.ImageURL != ""
	switch slide.Layout {
	case models.LayoutContentOnly:
		hasImage = false
	case models.LayoutImageFocus:
		imgX = 150.0
		imgWidth = pageWidth - imgX - marginX
	}

	textWidth := pageWidth - 2*marginX
	if hasImage {
		if !r.placeImage(pdf, slide, imgX, imgWidth, report) {
			hasImage = false
		}
	}
	if hasImage {
		textWidth = imgX - marginX - 8
	}

	pdf.SetTextColor(theme.Text.R, theme.Text.G, theme.Text.B)
	pdf.SetFont("Helvetica", "", 14)
	y := contentY
	for _, bullet := range slide.Content {
		bullet = strings.TrimSpace(bullet)
		if bullet == "" {
			continue
		}
		pdf.SetXY(marginX, y)
		pdf.CellFormat(6, 8, "-", "", 0, "L", false, 0, "")
		pdf.SetXY(marginX+6, y)
		pdf.MultiCell(textWidth-6, 8, bullet, "", "L", false)
		y = pdf.GetY() + 4
		if y > notesY-10 {
			break
		}
	}

	// Speaker notes as a footer strip
	if slide.SpeakerNotes != "" {
		pdf.SetTextColor(theme.Text.R, theme.Text.G, theme.Text.B)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetXY(marginX, notesY)
		notes := slide.SpeakerNotes
		if len(notes) > 400 {
			cut := 400
			for cut > 0 && !utf8.RuneStart(notes[cut]) {
				cut--
			}
			notes = notes[:cut]
		}
		pdf.MultiCell(pageWidth-2*marginX, 4.5, "Notes: "+notes, "", "L", false)
	}

	// Page number
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(pageWidth-marginX-20, pageHeight-10)
	pdf.CellFormat(20, 5, fmt.Sprintf("%d", slide.SlideNumber), "", 0, "R", false, 0, "")
}

// placeImage embeds the slide's stored image in the given region.
// Returns false and records a warning when the file cannot be used.
func (r *Renderer) placeImage(pdf *fpdf.Fpdf, slide *models.Slide, x, width float64, report *interfaces.RenderReport) bool {
	file, err := os.Open(slide.ImageURL)
	if err != nil {
		report.Add(fmt.Sprintf("slide %d: image unavailable: %v", slide.SlideNumber, err))
		return false
	}
	defer file.Close()

	imageType := strings.TrimPrefix(strings.ToLower(filepath.Ext(slide.ImageURL)), ".")
	if imageType == "jpg" {
		imageType = "jpeg"
	}

	name := fmt.Sprintf("slide-%d", slide.SlideNumber)
	options := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, options, file)
	if pdf.Err() {
		report.Add(fmt.Sprintf("slide %d: image could not be embedded: %v", slide.SlideNumber, pdf.Error()))
		pdf.ClearError()
		return false
	}

	pdf.ImageOptions(name, x, contentY, width, 0, false, options, 0, "")
	return true
}

func (r *Renderer) closingPage(pdf *fpdf.Fpdf, theme Theme) {
	pdf.AddPage()
	fillBackground(pdf, theme)

	pdf.SetTextColor(theme.Title.R, theme.Title.G, theme.Title.B)
	pdf.SetFont("Helvetica", "B", 40)
	pdf.SetXY(marginX, 90)
	pdf.MultiCell(pageWidth-2*marginX, 18, "Thank You", "", "C", false)

	pdf.SetDrawColor(theme.Accent.R, theme.Accent.G, theme.Accent.B)
	pdf.SetLineWidth(1.2)
	pdf.Line(pageWidth/2-30, 122, pageWidth/2+30, 122)
}
