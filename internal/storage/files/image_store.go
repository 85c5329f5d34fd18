package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/interfaces"
)

// ImageStore persists slide images on the local filesystem, laid out as
// <root>/<ownerID>/<presentationID>/<slideIndex>.<ext>.
type ImageStore struct {
	root   string
	logger arbor.ILogger
}

// NewImageStore creates a new filesystem-backed image store
func NewImageStore(root string, logger arbor.ILogger) (interfaces.ImageStore, error) {
	if root == "" {
		return nil, fmt.Errorf("image storage root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image storage root: %w", err)
	}
	return &ImageStore{root: root, logger: logger}, nil
}

func (s *ImageStore) SaveSlideImage(ctx context.Context, ownerID, presentationID string, slideIndex int, data []byte, ext string) (string, error) {
	if err := validComponent(ownerID); err != nil {
		return "", err
	}
	if err := validComponent(presentationID); err != nil {
		return "", err
	}
	if slideIndex < 0 {
		return "", fmt.Errorf("slide index must not be negative")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image data is empty")
	}

	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}

	dir := filepath.Join(s.root, ownerID, presentationID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	// Remove any previous image for this slide so a replacement with a
	// different extension does not leave the old file behind.
	s.removeSlideFiles(dir, slideIndex)

	path := filepath.Join(dir, strconv.Itoa(slideIndex)+"."+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Slide image saved")

	return path, nil
}

func (s *ImageStore) GetSlideImagePath(ownerID, presentationID string, slideIndex int) (string, bool) {
	if validComponent(ownerID) != nil || validComponent(presentationID) != nil {
		return "", false
	}

	dir := filepath.Join(s.root, ownerID, presentationID)
	matches, err := filepath.Glob(filepath.Join(dir, strconv.Itoa(slideIndex)+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

func (s *ImageStore) DeleteSlideImage(ctx context.Context, ownerID, presentationID string, slideIndex int) error {
	if err := validComponent(ownerID); err != nil {
		return err
	}
	if err := validComponent(presentationID); err != nil {
		return err
	}

	dir := filepath.Join(s.root, ownerID, presentationID)
	s.removeSlideFiles(dir, slideIndex)
	return nil
}

// MoveSlideImage re-keys a stored image after slides renumber. The target
// index is cleared first so a stale file never survives the move.
func (s *ImageStore) MoveSlideImage(ctx context.Context, ownerID, presentationID string, fromIndex, toIndex int) (string, error) {
	if err := validComponent(ownerID); err != nil {
		return "", err
	}
	if err := validComponent(presentationID); err != nil {
		return "", err
	}
	if fromIndex < 0 || toIndex < 0 {
		return "", fmt.Errorf("slide index must not be negative")
	}
	if fromIndex == toIndex {
		path, ok := s.GetSlideImagePath(ownerID, presentationID, fromIndex)
		if !ok {
			return "", nil
		}
		return path, nil
	}

	dir := filepath.Join(s.root, ownerID, presentationID)
	matches, err := filepath.Glob(filepath.Join(dir, strconv.Itoa(fromIndex)+".*"))
	if err != nil || len(matches) == 0 {
		return "", nil
	}

	s.removeSlideFiles(dir, toIndex)

	ext := strings.TrimPrefix(filepath.Ext(matches[0]), ".")
	target := filepath.Join(dir, strconv.Itoa(toIndex)+"."+ext)
	if err := os.Rename(matches[0], target); err != nil {
		return "", fmt.Errorf("failed to move slide image: %w", err)
	}

	s.logger.Debug().
		Str("from", matches[0]).
		Str("to", target).
		Msg("Slide image moved")

	return target, nil
}

func (s *ImageStore) DeletePresentationImages(ctx context.Context, ownerID, presentationID string) error {
	if err := validComponent(ownerID); err != nil {
		return err
	}
	if err := validComponent(presentationID); err != nil {
		return err
	}

	dir := filepath.Join(s.root, ownerID, presentationID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete presentation images: %w", err)
	}

	s.logger.Debug().Str("path", dir).Msg("Presentation images deleted")
	return nil
}

func (s *ImageStore) ListPresentationDirs(ctx context.Context) (map[string][]string, error) {
	return listDirs(s.root)
}

func (s *ImageStore) removeSlideFiles(dir string, slideIndex int) {
	matches, err := filepath.Glob(filepath.Join(dir, strconv.Itoa(slideIndex)+".*"))
	if err != nil {
		return
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", match).Msg("Failed to remove slide image")
		}
	}
}
