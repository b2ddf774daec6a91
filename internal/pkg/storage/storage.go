package storage

import (
	"context"
	"io"
)

// FileStorage is the photo store. Upload failures are reported to callers
// but must never fail an attendance submission.
type FileStorage interface {
	// Upload stores a file and returns its stable path/key.
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves a stored file.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file.
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists.
	Exists(ctx context.Context, path string) (bool, error)
}
