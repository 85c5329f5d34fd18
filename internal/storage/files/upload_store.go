package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// UploadStore stages uploaded source documents on the local filesystem,
// laid out as <root>/<ownerID>/<uploadID>/<filename>. The original filename
// is kept so the extractor can dispatch on its extension.
type UploadStore struct {
	root   string
	logger arbor.ILogger
}

// NewUploadStore creates a new filesystem-backed upload store
func NewUploadStore(root string, logger arbor.ILogger) (interfaces.UploadStore, error) {
	if root == "" {
		return nil, fmt.Errorf("upload storage root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload storage root: %w", err)
	}
	return &UploadStore{root: root, logger: logger}, nil
}

func (s *UploadStore) SaveUpload(ctx context.Context, ownerID, filename string, data []byte) (string, error) {
	if err := validComponent(ownerID); err != nil {
		return "", err
	}
	filename = filepath.Base(filename)
	if err := validComponent(filename); err != nil {
		return "", fmt.Errorf("invalid filename")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("upload data is empty")
	}

	uploadID := common.NewUploadID()
	dir := filepath.Join(s.root, ownerID, uploadID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	s.logger.Debug().
		Str("upload_id", uploadID).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("Upload staged")

	return uploadID, nil
}

func (s *UploadStore) GetUpload(ctx context.Context, ownerID, uploadID string) (string, []byte, error) {
	if err := validComponent(ownerID); err != nil {
		return "", nil, err
	}
	if err := validComponent(uploadID); err != nil {
		return "", nil, err
	}

	dir := filepath.Join(s.root, ownerID, uploadID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, models.ErrNotFound
		}
		return "", nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload file: %w", err)
		}
		return entry.Name(), data, nil
	}
	return "", nil, models.ErrNotFound
}

func (s *UploadStore) DeleteUpload(ctx context.Context, ownerID, uploadID string) error {
	if err := validComponent(ownerID); err != nil {
		return err
	}
	if err := validComponent(uploadID); err != nil {
		return err
	}

	dir := filepath.Join(s.root, ownerID, uploadID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}
