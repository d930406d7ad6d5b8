package service

import (
	"io"
	"time"
)

// BlobStorage abstracts durable byte storage. Keys are relative paths
// returned by Save; the category groups blobs ("images", "thumbnails").
type BlobStorage interface {
	// Save stores a blob's content under the given category and filename
	// and returns the relative path where it was stored.
	Save(fileData io.Reader, category, filename string) (string, error)

	// Read opens a blob for reading given its relative path.
	Read(filePath string) (io.ReadCloser, error)

	// Delete removes a single blob. Deleting a missing blob is not an error.
	Delete(filePath string) error

	// WalkFiles lists the relative paths of every stored blob.
	WalkFiles() ([]string, error)

	// ModTime reports when a blob was last written.
	ModTime(filePath string) (time.Time, error)
}
