package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mfkarayel/eshop/internal/storage"
)

// Storage implements storage.Storage on the local filesystem. Files land in
// a flat directory served as static content under /uploads.
type Storage struct {
	dir     string
	baseURL string
}

// New creates a disk storage rooted at dir. The directory is created if it
// does not exist.
func New(dir, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Storage{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Upload writes the file to disk under its key.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	key := filepath.Base(input.Key)
	if key == "." || key == ".." || key == "/" {
		return nil, fmt.Errorf("invalid file key: %q", input.Key)
	}

	path := filepath.Join(s.dir, key)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, input.Data); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &storage.UploadResult{
		Key: key,
		URL: s.urlFor(key),
	}, nil
}

// Delete removes a stored file. Deleting an absent key is an error.
func (s *Storage) Delete(_ context.Context, key string) error {
	path := filepath.Join(s.dir, filepath.Base(key))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", key)
		}
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// GetURL returns the public URL for a stored key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(key))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %s", key)
	}
	return s.urlFor(key), nil
}

// Dir returns the directory files are stored in, for static file serving.
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) urlFor(key string) string {
	return fmt.Sprintf("%s/uploads/%s", s.baseURL, key)
}
