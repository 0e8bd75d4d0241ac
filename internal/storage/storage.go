package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage is a disk-backed durable asset store. Uploaded objects get a
// uuid-based name and are served back under {baseURL}/files/. URLs under
// that prefix are durable; anything else (e.g. a provider's delivery URL)
// is transient.
type Storage struct {
	BaseDir string
	BaseURL string
}

// New creates a storage rooted at baseDir, serving URLs under baseURL.
func New(baseDir, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Storage{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload persists data and returns its durable public URL. The original
// filename only contributes its extension; object names are uuids.
func (s *Storage) Upload(_ context.Context, filename string, data []byte, contentType string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}

	objectName := uuid.New().String() + ext
	path := filepath.Join(s.BaseDir, objectName)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return s.BaseURL + "/files/" + objectName, nil
}

// IsDurableURL reports whether url points at this storage rather than a
// transient upstream location.
func (s *Storage) IsDurableURL(url string) bool {
	return strings.HasPrefix(url, s.BaseURL+"/files/")
}

// Open returns the on-disk path for a stored object name, guarding against
// path traversal.
func (s *Storage) Open(objectName string) (string, error) {
	clean := filepath.Base(objectName)
	path := filepath.Join(s.BaseDir, clean)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
