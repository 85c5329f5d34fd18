package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validComponent rejects identifiers that could escape the storage root
// when joined into a path.
func validComponent(id string) error {
	if id == "" {
		return fmt.Errorf("identifier is required")
	}
	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("invalid identifier: %s", id)
	}
	return nil
}

// listDirs walks a two-level <owner>/<presentation> tree and returns the
// second-level directory names grouped by the first.
func listDirs(root string) (map[string][]string, error) {
	result := make(map[string][]string)

	owners, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	for _, owner := range owners {
		if !owner.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, owner.Name()))
		if err != nil {
			continue
		}
		var ids []string
		for _, entry := range entries {
			if entry.IsDir() {
				ids = append(ids, entry.Name())
			}
		}
		result[owner.Name()] = ids
	}
	return result, nil
}
