package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// Service runs the generation pipeline end to end. The slide outline is the
// only hard dependency: blocked or failing URLs, encyclopedic misses and
// image resolution failures degrade the result instead of failing it, while
// an unreadable upload or a failed outline aborts.
type Service struct {
	config        *common.Config
	logger        arbor.ILogger
	gate          interfaces.PolicyGate
	web           interfaces.WebAcquirer
	encyclopedic  interfaces.EncyclopedicAcquirer
	extractor     interfaces.UploadExtractor
	aggregator    interfaces.Aggregator
	outline       interfaces.OutlineService
	resolver      interfaces.ImageResolver
	renderer      interfaces.DeckRenderer
	presentations interfaces.PresentationStorage
	images        interfaces.ImageStore
	decks         interfaces.DeckStore
	uploads       interfaces.UploadStore
}

// Deps bundles the pipeline collaborators. Resolver may be nil when no
// image provider is configured; slides then render without images.
type Deps struct {
	Gate          interfaces.PolicyGate
	Web           interfaces.WebAcquirer
	Encyclopedic  interfaces.EncyclopedicAcquirer
	Extractor     interfaces.UploadExtractor
	Aggregator    interfaces.Aggregator
	Outline       interfaces.OutlineService
	Resolver      interfaces.ImageResolver
	Renderer      interfaces.DeckRenderer
	Presentations interfaces.PresentationStorage
	Images        interfaces.ImageStore
	Decks         interfaces.DeckStore
	Uploads       interfaces.UploadStore
}

var _ interfaces.GeneratorService = (*Service)(nil)

// NewService creates a new generator service
func NewService(config *common.Config, logger arbor.ILogger, deps Deps) *Service {
	return &Service{
		config:        config,
		logger:        logger,
		gate:          deps.Gate,
		web:           deps.Web,
		encyclopedic:  deps.Encyclopedic,
		extractor:     deps.Extractor,
		aggregator:    deps.Aggregator,
		outline:       deps.Outline,
		resolver:      deps.Resolver,
		renderer:      deps.Renderer,
		presentations: deps.Presentations,
		images:        deps.Images,
		decks:         deps.Decks,
		uploads:       deps.Uploads,
	}
}

// Generate builds and stores a new presentation for the owner
func (s *Service) Generate(ctx context.Context, ownerID string, spec models.SlideSpec) (*models.Presentation, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}

	theme := models.NormalizeTheme(spec.Theme)
	slideCount := spec.SlideCount
	if slideCount < 1 {
		slideCount = 1
	}
	if slideCount > s.config.Generation.MaxSlides {
		slideCount = s.config.Generation.MaxSlides
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("topic", spec.Topic).
		Int("slide_count", slideCount).
		Str("theme", theme).
		Msg("Starting presentation generation")

	input, err := s.acquire(ctx, ownerID, spec)
	if err != nil {
		return nil, err
	}

	aggregated := s.aggregator.Aggregate(ctx, input)

	slides, err := s.outline.GenerateOutline(ctx, spec.Topic, aggregated.Text, slideCount)
	if err != nil {
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}

	presentation := &models.Presentation{
		ID:          common.NewPresentationID(),
		OwnerID:     ownerID,
		Topic:       spec.Topic,
		Theme:       theme,
		BrandColors: spec.BrandColors,
		Slides:      slides,
		Chart:       spec.Chart,
		Sources:     aggregated.Contributions,
		Truncated:   aggregated.Truncated,
	}

	s.resolveImages(ctx, presentation)

	if err := s.Rerender(ctx, presentation); err != nil {
		return nil, err
	}

	if err := s.presentations.StorePresentation(ctx, presentation); err != nil {
		return nil, err
	}

	// The staged upload is consumed by a successful generation
	if spec.UploadID != "" {
		if err := s.uploads.DeleteUpload(ctx, ownerID, spec.UploadID); err != nil {
			s.logger.Warn().Err(err).Str("upload_id", spec.UploadID).Msg("Failed to remove consumed upload")
		}
	}

	s.logger.Info().
		Str("presentation_id", presentation.ID).
		Int("slides", len(presentation.Slides)).
		Int("warnings", len(presentation.RenderWarnings)).
		Msg("Presentation generated")

	return presentation, nil
}

// acquire gathers source material. The encyclopedic lookup only runs as a
// fallback when no other source produced anything.
func (s *Service) acquire(ctx context.Context, ownerID string, spec models.SlideSpec) (interfaces.AggregateInput, error) {
	input := interfaces.AggregateInput{UserText: spec.UserText}
	input.Web = s.scrapeAll(ctx, spec.URLs)

	if spec.UploadID != "" {
		filename, data, err := s.uploads.GetUpload(ctx, ownerID, spec.UploadID)
		if err != nil {
			return input, fmt.Errorf("upload %s: %w", spec.UploadID, err)
		}
		content, err := s.extractor.Extract(ctx, filename, data)
		if err != nil {
			return input, fmt.Errorf("upload %s: %w", spec.UploadID, err)
		}
		input.Upload = content
	}

	if len(input.Web) == 0 && input.UserText == "" && input.Upload == nil {
		content, err := s.encyclopedic.Lookup(ctx, spec.Topic)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", spec.Topic).Msg("Encyclopedic lookup failed, generating from topic alone")
		} else {
			input.Encyclopedic = content
		}
	}

	return input, nil
}

// scrapeAll fetches every requested URL concurrently, each under its own
// timeout so a hanging host cannot stall the others. A URL that is blocked
// by robots policy or fails to scrape is skipped; the rest still contribute.
func (s *Service) scrapeAll(ctx context.Context, urls []string) []*models.WebContent {
	if len(urls) == 0 {
		return nil
	}

	results := make([]*models.WebContent, len(urls))
	var wg sync.WaitGroup

	for i, rawURL := range urls {
		wg.Add(1)
		common.SafeGo(s.logger, "scrapeURL", func() {
			defer wg.Done()

			taskCtx, cancel := context.WithTimeout(ctx, s.config.Scraper.RequestTimeout)
			defer cancel()

			if s.config.Scraper.FollowRobots {
				decision := s.gate.Check(taskCtx, rawURL)
				if !decision.Allowed {
					s.logger.Warn().
						Str("url", rawURL).
						Str("reason", decision.Reason).
						Msg("URL blocked by robots policy, skipping source")
					return
				}
			}

			content, err := s.web.Scrape(taskCtx, rawURL)
			if err != nil {
				s.logger.Warn().Err(err).Str("url", rawURL).Msg("Web scrape failed, skipping source")
				return
			}
			results[i] = content
		})
	}
	wg.Wait()

	scraped := make([]*models.WebContent, 0, len(results))
	for _, content := range results {
		if content != nil {
			scraped = append(scraped, content)
		}
	}
	return scraped
}

// resolveImages fetches one image per slide that carries keywords.
// Downloads run concurrently, bounded by the configured worker count.
func (s *Service) resolveImages(ctx context.Context, presentation *models.Presentation) {
	if s.resolver == nil {
		return
	}

	workers := s.config.Pixabay.DownloadWorkers
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range presentation.Slides {
		slide := &presentation.Slides[i]
		if len(slide.ImageKeywords) == 0 {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		common.SafeGo(s.logger, "resolveSlideImage", func() {
			defer wg.Done()
			defer func() { <-sem }()

			path, alternates, err := s.fetchSlideImage(ctx, presentation.OwnerID, presentation.ID, slide.SlideNumber, slide.ImageKeywords)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("presentation_id", presentation.ID).
					Int("slide", slide.SlideNumber).
					Msg("Image resolution failed, slide renders without image")
				return
			}
			slide.ImageURL = path
			slide.SuggestedImages = alternates
		})
	}

	wg.Wait()
}

// fetchSlideImage resolves keywords to a stored image file. The first
// candidate is downloaded and stored; the rest come back as alternates
// for the suggestion and replacement flows.
func (s *Service) fetchSlideImage(ctx context.Context, ownerID, presentationID string, slideNumber int, keywords []string) (string, []models.ImageCandidate, error) {
	candidates, err := s.resolver.Search(ctx, keywords, s.config.Pixabay.MaxCandidates)
	if err != nil {
		return "", nil, err
	}
	if len(candidates) == 0 {
		return "", nil, models.ErrImageResolution
	}

	data, ext, err := s.resolver.Download(ctx, candidates[0])
	if err != nil {
		return "", nil, err
	}

	path, err := s.images.SaveSlideImage(ctx, ownerID, presentationID, slideNumber-1, data, ext)
	if err != nil {
		return "", nil, err
	}
	return path, candidates[1:], nil
}

// ReplaceSlideImage re-resolves the image for a single slide and re-renders the deck
func (s *Service) ReplaceSlideImage(ctx context.Context, ownerID, presentationID string, slideNumber int, keywords []string) (*models.Presentation, error) {
	if s.resolver == nil {
		return nil, fmt.Errorf("image provider is not configured: %w", models.ErrImageResolution)
	}

	presentation, err := s.presentations.GetPresentation(ctx, ownerID, presentationID)
	if err != nil {
		return nil, err
	}

	slide, ok := presentation.SlideByNumber(slideNumber)
	if !ok {
		return nil, fmt.Errorf("slide %d: %w", slideNumber, models.ErrNotFound)
	}

	if len(keywords) == 0 {
		keywords = slide.ImageKeywords
	}
	if len(keywords) == 0 {
		keywords = []string{presentation.Topic}
	}

	path, alternates, err := s.fetchSlideImage(ctx, ownerID, presentationID, slideNumber, keywords)
	if err != nil {
		return nil, err
	}

	slide.ImageURL = path
	slide.ImageKeywords = keywords
	slide.SuggestedImages = alternates

	if err := s.Rerender(ctx, presentation); err != nil {
		return nil, err
	}
	if err := s.presentations.StorePresentation(ctx, presentation); err != nil {
		return nil, err
	}
	return presentation, nil
}

// Rerender rebuilds the deck file and refreshes DeckPath and RenderWarnings.
// The caller persists the presentation.
func (s *Service) Rerender(ctx context.Context, presentation *models.Presentation) error {
	data, report, err := s.renderer.Render(ctx, presentation)
	if err != nil {
		return fmt.Errorf("deck rendering failed: %w", err)
	}

	path, err := s.decks.SaveDeck(ctx, presentation.OwnerID, presentation.ID, data)
	if err != nil {
		return fmt.Errorf("failed to store deck: %w", err)
	}

	presentation.DeckPath = path
	presentation.RenderWarnings = report.Warnings
	return nil
}
