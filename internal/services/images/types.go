package images

// PixabaySearchResponse represents the Pixabay API search response
type PixabaySearchResponse struct {
	Total     int          `json:"total"`
	TotalHits int          `json:"totalHits"`
	Hits      []PixabayHit `json:"hits"`
}

// PixabayHit represents a single image result from the Pixabay API
type PixabayHit struct {
	ID              int    `json:"id"`
	PageURL         string `json:"pageURL"`
	Type            string `json:"type"`
	Tags            string `json:"tags"`
	PreviewURL      string `json:"previewURL"`
	PreviewWidth    int    `json:"previewWidth"`
	PreviewHeight   int    `json:"previewHeight"`
	WebformatURL    string `json:"webformatURL"`
	WebformatWidth  int    `json:"webformatWidth"`
	WebformatHeight int    `json:"webformatHeight"`
	LargeImageURL   string `json:"largeImageURL"`
	ImageWidth      int    `json:"imageWidth"`
	ImageHeight     int    `json:"imageHeight"`
	Views           int    `json:"views"`
	Downloads       int    `json:"downloads"`
	Likes           int    `json:"likes"`
	User            string `json:"user"`
	UserImageURL    string `json:"userImageURL"`
}
