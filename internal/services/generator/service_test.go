package generator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
	"github.com/slidecraft/slidecraft/internal/services/acquire"
)

type fakeGate struct {
	mu       sync.Mutex
	allowed  bool
	reason   string
	blockURL string
	checked  []string
}

func (g *fakeGate) Check(ctx context.Context, rawURL string) interfaces.PolicyDecision {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checked = append(g.checked, rawURL)
	allowed := g.allowed
	if g.blockURL != "" && rawURL == g.blockURL {
		allowed = false
	}
	return interfaces.PolicyDecision{URL: rawURL, Allowed: allowed, Reason: g.reason}
}

func (g *fakeGate) FetchRaw(ctx context.Context, rawURL string) (string, error) {
	return "", nil
}

func (g *fakeGate) checkedURLs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.checked...)
}

type fakeWeb struct {
	mu      sync.Mutex
	content *models.WebContent
	byURL   map[string]*models.WebContent
	err     error
	scraped []string
}

func (w *fakeWeb) Scrape(ctx context.Context, rawURL string) (*models.WebContent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scraped = append(w.scraped, rawURL)
	if w.err != nil {
		return nil, w.err
	}
	if content, ok := w.byURL[rawURL]; ok {
		return content, nil
	}
	return w.content, nil
}

type fakeWiki struct {
	content *models.EncyclopedicContent
	err     error
	calls   int
}

func (w *fakeWiki) Lookup(ctx context.Context, topic string) (*models.EncyclopedicContent, error) {
	w.calls++
	return w.content, w.err
}

type fakeExtractor struct {
	content *models.UploadContent
	err     error
}

func (e *fakeExtractor) Extract(ctx context.Context, filename string, data []byte) (*models.UploadContent, error) {
	return e.content, e.err
}

type fakeOutline struct {
	err        error
	slideCount int
	keywords   []string
}

func (o *fakeOutline) GenerateOutline(ctx context.Context, topic, context string, slideCount int) ([]models.Slide, error) {
	o.slideCount = slideCount
	if o.err != nil {
		return nil, o.err
	}
	slides := make([]models.Slide, slideCount)
	for i := range slides {
		slides[i] = models.Slide{
			SlideNumber:   i + 1,
			Title:         fmt.Sprintf("Slide %d", i+1),
			Content:       []string{"Point"},
			Layout:        models.LayoutTitleContent,
			ImageKeywords: o.keywords,
		}
	}
	return slides, nil
}

type fakeResolver struct {
	mu          sync.Mutex
	searchErr   error
	downloadErr error
	candidates  []models.ImageCandidate
	searches    int
}

func (r *fakeResolver) Search(ctx context.Context, keywords []string, max int) ([]models.ImageCandidate, error) {
	r.mu.Lock()
	r.searches++
	r.mu.Unlock()
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	if len(r.candidates) > 0 {
		return r.candidates, nil
	}
	return []models.ImageCandidate{{URL: "https://img.example/a.jpg"}}, nil
}

func (r *fakeResolver) Download(ctx context.Context, candidate models.ImageCandidate) ([]byte, string, error) {
	if r.downloadErr != nil {
		return nil, "", r.downloadErr
	}
	return []byte("imagebytes"), "jpg", nil
}

type fakeRenderer struct {
	err      error
	warnings []string
	renders  int
}

func (r *fakeRenderer) Render(ctx context.Context, presentation *models.Presentation) ([]byte, *interfaces.RenderReport, error) {
	r.renders++
	if r.err != nil {
		return nil, nil, r.err
	}
	return []byte("%PDF-fake"), &interfaces.RenderReport{Warnings: r.warnings}, nil
}

type memPresentations struct {
	mu    sync.Mutex
	items map[string]*models.Presentation
}

func newMemPresentations() *memPresentations {
	return &memPresentations{items: make(map[string]*models.Presentation)}
}

func (m *memPresentations) StorePresentation(ctx context.Context, p *models.Presentation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.items[p.ID] = &clone
	return nil
}

func (m *memPresentations) GetPresentation(ctx context.Context, ownerID, id string) (*models.Presentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memPresentations) ListPresentations(ctx context.Context, ownerID string) ([]*models.PresentationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.PresentationSummary
	for _, p := range m.items {
		if p.OwnerID == ownerID {
			summary := p.Summary()
			result = append(result, &summary)
		}
	}
	return result, nil
}

func (m *memPresentations) DeletePresentation(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.OwnerID != ownerID {
		return models.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memPresentations) CountPresentations(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func (m *memPresentations) ListAllPresentations(ctx context.Context) ([]*models.Presentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Presentation
	for _, p := range m.items {
		result = append(result, p)
	}
	return result, nil
}

type memImages struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemImages() *memImages { return &memImages{files: make(map[string][]byte)} }

func imageKey(ownerID, presentationID string, slideIndex int) string {
	return fmt.Sprintf("%s/%s/%d", ownerID, presentationID, slideIndex)
}

func (m *memImages) SaveSlideImage(ctx context.Context, ownerID, presentationID string, slideIndex int, data []byte, ext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := imageKey(ownerID, presentationID, slideIndex) + "." + ext
	m.files[key] = data
	return key, nil
}

func (m *memImages) GetSlideImagePath(ownerID, presentationID string, slideIndex int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := imageKey(ownerID, presentationID, slideIndex) + ".jpg"
	_, ok := m.files[key]
	return key, ok
}

func (m *memImages) DeleteSlideImage(ctx context.Context, ownerID, presentationID string, slideIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, imageKey(ownerID, presentationID, slideIndex)+".jpg")
	return nil
}

func (m *memImages) MoveSlideImage(ctx context.Context, ownerID, presentationID string, fromIndex, toIndex int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fromKey := imageKey(ownerID, presentationID, fromIndex) + ".jpg"
	data, ok := m.files[fromKey]
	if !ok {
		return "", nil
	}
	delete(m.files, fromKey)
	toKey := imageKey(ownerID, presentationID, toIndex) + ".jpg"
	m.files[toKey] = data
	return toKey, nil
}

func (m *memImages) DeletePresentationImages(ctx context.Context, ownerID, presentationID string) error {
	return nil
}

func (m *memImages) ListPresentationDirs(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{}, nil
}

type memDecks struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemDecks() *memDecks { return &memDecks{files: make(map[string][]byte)} }

func (m *memDecks) SaveDeck(ctx context.Context, ownerID, presentationID string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ownerID + "/" + presentationID + "/deck.pdf"
	m.files[key] = data
	return key, nil
}

func (m *memDecks) GetDeckPath(ownerID, presentationID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ownerID + "/" + presentationID + "/deck.pdf"
	_, ok := m.files[key]
	return key, ok
}

func (m *memDecks) DeleteDeck(ctx context.Context, ownerID, presentationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ownerID+"/"+presentationID+"/deck.pdf")
	return nil
}

func (m *memDecks) ListDeckDirs(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{}, nil
}

type memUploads struct {
	mu      sync.Mutex
	files   map[string][]byte
	names   map[string]string
	deleted []string
}

func newMemUploads() *memUploads {
	return &memUploads{files: make(map[string][]byte), names: make(map[string]string)}
}

func (m *memUploads) SaveUpload(ctx context.Context, ownerID, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("upl_%d", len(m.files)+1)
	m.files[ownerID+"/"+id] = data
	m.names[ownerID+"/"+id] = filename
	return id, nil
}

func (m *memUploads) GetUpload(ctx context.Context, ownerID, uploadID string) (string, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[ownerID+"/"+uploadID]
	if !ok {
		return "", nil, models.ErrNotFound
	}
	return m.names[ownerID+"/"+uploadID], data, nil
}

func (m *memUploads) DeleteUpload(ctx context.Context, ownerID, uploadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ownerID+"/"+uploadID)
	m.deleted = append(m.deleted, uploadID)
	return nil
}

type fixture struct {
	service       *Service
	gate          *fakeGate
	web           *fakeWeb
	wiki          *fakeWiki
	extractor     *fakeExtractor
	outline       *fakeOutline
	resolver      *fakeResolver
	renderer      *fakeRenderer
	presentations *memPresentations
	images        *memImages
	decks         *memDecks
	uploads       *memUploads
}

func newFixture() *fixture {
	config := common.NewDefaultConfig()
	logger := common.GetLogger()

	f := &fixture{
		gate:          &fakeGate{allowed: true},
		web:           &fakeWeb{},
		wiki:          &fakeWiki{},
		extractor:     &fakeExtractor{},
		outline:       &fakeOutline{keywords: []string{"energy"}},
		resolver:      &fakeResolver{},
		renderer:      &fakeRenderer{},
		presentations: newMemPresentations(),
		images:        newMemImages(),
		decks:         newMemDecks(),
		uploads:       newMemUploads(),
	}
	f.service = NewService(config, logger, Deps{
		Gate:          f.gate,
		Web:           f.web,
		Encyclopedic:  f.wiki,
		Extractor:     f.extractor,
		Aggregator:    acquire.NewAggregator(config, logger),
		Outline:       f.outline,
		Resolver:      f.resolver,
		Renderer:      f.renderer,
		Presentations: f.presentations,
		Images:        f.images,
		Decks:         f.decks,
		Uploads:       f.uploads,
	})
	return f
}

func TestGenerateFromTopic(t *testing.T) {
	f := newFixture()
	f.wiki.content = &models.EncyclopedicContent{Topic: "Solar Power", Title: "Solar power", Summary: "Energy from the sun."}

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 3,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, presentation.ID)
	assert.Equal(t, "owner_a", presentation.OwnerID)
	assert.Equal(t, models.ThemeModern, presentation.Theme)
	require.Len(t, presentation.Slides, 3)
	assert.NotEmpty(t, presentation.DeckPath)

	// Encyclopedic fallback was consulted and recorded as a source
	assert.Equal(t, 1, f.wiki.calls)
	require.Len(t, presentation.Sources, 1)
	assert.Equal(t, models.SourceTypeEncyclopedic, presentation.Sources[0].SourceType)

	stored, err := f.presentations.GetPresentation(context.Background(), "owner_a", presentation.ID)
	require.NoError(t, err)
	assert.Equal(t, presentation.DeckPath, stored.DeckPath)
}

func TestGenerateSkipsEncyclopedicWhenUserTextPresent(t *testing.T) {
	f := newFixture()

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		UserText:   "My own notes about solar power.",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.wiki.calls)
	require.Len(t, presentation.Sources, 1)
	assert.Equal(t, models.SourceTypeUserText, presentation.Sources[0].SourceType)
}

func TestGenerateBlockedURL(t *testing.T) {
	f := newFixture()
	f.gate.allowed = false
	f.gate.reason = "Blocked by robots.txt"
	f.wiki.content = &models.EncyclopedicContent{Topic: "Solar Power", Title: "Solar power", Summary: "Energy from the sun."}

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 3,
		URLs:       []string{"https://example.com/solar"},
	})
	require.NoError(t, err)

	// The blocked URL is dropped and the encyclopedic fallback kicks in
	assert.Equal(t, 1, f.wiki.calls)
	assert.Empty(t, f.web.scraped)
	require.Len(t, presentation.Sources, 1)
	assert.Equal(t, models.SourceTypeEncyclopedic, presentation.Sources[0].SourceType)
	assert.Equal(t, 1, f.renderer.renders)
}

func TestGenerateScrapeFailureDegrades(t *testing.T) {
	f := newFixture()
	f.web.err = fmt.Errorf("connection refused")

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		URLs:       []string{"https://example.com/solar"},
		UserText:   "Fallback notes.",
	})
	require.NoError(t, err)
	require.Len(t, presentation.Sources, 1)
	assert.Equal(t, models.SourceTypeUserText, presentation.Sources[0].SourceType)
}

func TestGenerateMultipleURLsPartialSuccess(t *testing.T) {
	f := newFixture()
	f.gate.blockURL = "https://blocked.example/page"
	f.web.byURL = map[string]*models.WebContent{
		"https://ok.example/page": {URL: "https://ok.example/page", Title: "Good page", Paragraphs: []string{"Useful text."}},
	}

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		URLs:       []string{"https://blocked.example/page", "https://ok.example/page"},
	})
	require.NoError(t, err)

	// Both URLs hit the gate but only the allowed one was scraped
	assert.Len(t, f.gate.checkedURLs(), 2)
	assert.Equal(t, []string{"https://ok.example/page"}, f.web.scraped)

	require.Len(t, presentation.Sources, 1)
	assert.Equal(t, models.SourceTypeWeb, presentation.Sources[0].SourceType)
	assert.Equal(t, "https://ok.example/page", presentation.Sources[0].Label)
	assert.Equal(t, 0, f.wiki.calls)
}

func TestGenerateSkipsRobotsCheckWhenDisabled(t *testing.T) {
	f := newFixture()
	f.service.config.Scraper.FollowRobots = false
	f.gate.allowed = false
	f.web.content = &models.WebContent{URL: "https://example.com/solar", Title: "Solar", Paragraphs: []string{"Text."}}

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		URLs:       []string{"https://example.com/solar"},
	})
	require.NoError(t, err)

	assert.Empty(t, f.gate.checkedURLs())
	assert.Equal(t, []string{"https://example.com/solar"}, f.web.scraped)
	require.Len(t, presentation.Sources, 1)
	assert.Equal(t, models.SourceTypeWeb, presentation.Sources[0].SourceType)
}

func TestGenerateOutlineFailureAborts(t *testing.T) {
	f := newFixture()
	f.outline.err = &models.GenerationError{Attempts: 2, Err: fmt.Errorf("invalid JSON")}

	_, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 3,
		UserText:   "notes",
	})
	require.Error(t, err)

	var genErr *models.GenerationError
	assert.ErrorAs(t, err, &genErr)

	count, _ := f.presentations.CountPresentations(context.Background())
	assert.Equal(t, 0, count)
}

func TestGenerateImageFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.resolver.searchErr = models.ErrImageResolution

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		UserText:   "notes",
	})
	require.NoError(t, err)
	for _, slide := range presentation.Slides {
		assert.Empty(t, slide.ImageURL)
	}
}

func TestGenerateResolvesSlideImages(t *testing.T) {
	f := newFixture()

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 3,
		UserText:   "notes",
	})
	require.NoError(t, err)

	for i, slide := range presentation.Slides {
		assert.Equal(t, imageKey("owner_a", presentation.ID, i)+".jpg", slide.ImageURL)
	}
	assert.Equal(t, 3, f.resolver.searches)
}

func TestGenerateKeepsAlternateImageCandidates(t *testing.T) {
	f := newFixture()
	f.resolver.candidates = []models.ImageCandidate{
		{URL: "https://img.example/a.jpg"},
		{URL: "https://img.example/b.jpg"},
		{URL: "https://img.example/c.jpg"},
	}

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		UserText:   "notes",
	})
	require.NoError(t, err)

	for _, slide := range presentation.Slides {
		assert.NotEmpty(t, slide.ImageURL)
		require.Len(t, slide.SuggestedImages, 2)
		assert.Equal(t, "https://img.example/b.jpg", slide.SuggestedImages[0].URL)
		assert.Equal(t, "https://img.example/c.jpg", slide.SuggestedImages[1].URL)
	}
}

func TestGenerateConsumesUpload(t *testing.T) {
	f := newFixture()
	f.extractor.content = &models.UploadContent{Filename: "report.pdf", Format: "pdf", Text: "Extracted text."}

	uploadID, err := f.uploads.SaveUpload(context.Background(), "owner_a", "report.pdf", []byte("pdf"))
	require.NoError(t, err)

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		UploadID:   uploadID,
	})
	require.NoError(t, err)

	require.Len(t, presentation.Sources, 1)
	assert.Equal(t, models.SourceTypeUpload, presentation.Sources[0].SourceType)
	assert.Contains(t, f.uploads.deleted, uploadID)
	assert.Equal(t, 0, f.wiki.calls)
}

func TestGenerateUnsupportedUploadAborts(t *testing.T) {
	f := newFixture()
	f.extractor.err = fmt.Errorf("file type .txt: %w", models.ErrUnsupportedFormat)

	uploadID, err := f.uploads.SaveUpload(context.Background(), "owner_a", "notes.txt", []byte("text"))
	require.NoError(t, err)

	_, err = f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		UploadID:   uploadID,
	})
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestGenerateClampsSlideCount(t *testing.T) {
	f := newFixture()

	_, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 500,
		UserText:   "notes",
	})
	require.NoError(t, err)
	assert.Equal(t, f.service.config.Generation.MaxSlides, f.outline.slideCount)
}

func TestReplaceSlideImage(t *testing.T) {
	f := newFixture()

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		UserText:   "notes",
	})
	require.NoError(t, err)
	rendersBefore := f.renderer.renders

	updated, err := f.service.ReplaceSlideImage(context.Background(), "owner_a", presentation.ID, 2, []string{"sunset", "panels"})
	require.NoError(t, err)

	slide, ok := updated.SlideByNumber(2)
	require.True(t, ok)
	assert.Equal(t, []string{"sunset", "panels"}, slide.ImageKeywords)
	assert.NotEmpty(t, slide.ImageURL)
	assert.Equal(t, rendersBefore+1, f.renderer.renders)

	stored, err := f.presentations.GetPresentation(context.Background(), "owner_a", presentation.ID)
	require.NoError(t, err)
	storedSlide, ok := stored.SlideByNumber(2)
	require.True(t, ok)
	assert.Equal(t, []string{"sunset", "panels"}, storedSlide.ImageKeywords)
}

func TestReplaceSlideImageMissingSlide(t *testing.T) {
	f := newFixture()

	presentation, err := f.service.Generate(context.Background(), "owner_a", models.SlideSpec{
		Topic:      "Solar Power",
		SlideCount: 2,
		UserText:   "notes",
	})
	require.NoError(t, err)

	_, err = f.service.ReplaceSlideImage(context.Background(), "owner_a", presentation.ID, 9, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.service.ReplaceSlideImage(context.Background(), "owner_b", presentation.ID, 1, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
