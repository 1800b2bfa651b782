package storage

import (
	"context"
	"io"
)

// MaxUploadSize is the largest accepted image upload in bytes.
const MaxUploadSize = 10 << 20

// allowedExtensions maps accepted image file extensions to their MIME type.
var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
}

// IsAllowedExtension reports whether the file extension is an accepted
// image type.
func IsAllowedExtension(ext string) bool {
	_, ok := allowedExtensions[ext]
	return ok
}

// ContentTypeFor returns the MIME type for an accepted extension, or "" when
// the extension is not allowed.
func ContentTypeFor(ext string) string {
	return allowedExtensions[ext]
}

// Storage defines the interface for image file storage.
type Storage interface {
	// Upload stores a file under the given key and returns its public URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes a file by its key.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for the given key.
	GetURL(ctx context.Context, key string) (string, error)
}

// UploadInput holds the parameters for storing a file.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the outcome of a successful upload.
type UploadResult struct {
	Key string
	URL string
}
