package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/interfaces"
)

const deckFilename = "deck.pdf"

// DeckStore persists rendered decks on the local filesystem, laid out as
// <root>/<ownerID>/<presentationID>/deck.pdf.
type DeckStore struct {
	root   string
	logger arbor.ILogger
}

// NewDeckStore creates a new filesystem-backed deck store
func NewDeckStore(root string, logger arbor.ILogger) (interfaces.DeckStore, error) {
	if root == "" {
		return nil, fmt.Errorf("deck storage root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create deck storage root: %w", err)
	}
	return &DeckStore{root: root, logger: logger}, nil
}

func (s *DeckStore) SaveDeck(ctx context.Context, ownerID, presentationID string, data []byte) (string, error) {
	if err := validComponent(ownerID); err != nil {
		return "", err
	}
	if err := validComponent(presentationID); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("deck data is empty")
	}

	dir := filepath.Join(s.root, ownerID, presentationID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create deck directory: %w", err)
	}

	path := filepath.Join(dir, deckFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write deck file: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Deck saved")

	return path, nil
}

func (s *DeckStore) GetDeckPath(ownerID, presentationID string) (string, bool) {
	if validComponent(ownerID) != nil || validComponent(presentationID) != nil {
		return "", false
	}

	path := filepath.Join(s.root, ownerID, presentationID, deckFilename)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (s *DeckStore) DeleteDeck(ctx context.Context, ownerID, presentationID string) error {
	if err := validComponent(ownerID); err != nil {
		return err
	}
	if err := validComponent(presentationID); err != nil {
		return err
	}

	dir := filepath.Join(s.root, ownerID, presentationID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}

func (s *DeckStore) ListDeckDirs(ctx context.Context) (map[string][]string, error) {
	return listDirs(s.root)
}
