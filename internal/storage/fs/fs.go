package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Camillus83/ImageUploadAPI/internal/service"
)

// Storage keeps blobs on the local filesystem under a single root, one
// subdirectory per category ("images", "thumbnails").
type Storage struct {
	rootPath string
}

// Ensure Storage implements the interface at compile time.
var _ service.BlobStorage = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// Save writes a blob under category/filename and returns the relative path.
func (s *Storage) Save(fileData io.Reader, category, filename string) (string, error) {
	// Clean both parts to prevent shenanigans like ".jpg/../../foo.txt".
	relativePath := filepath.Join(filepath.Clean(category), filepath.Clean(filename))
	fullPath := filepath.Join(s.rootPath, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create category directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, fileData); err != nil {
		// If the copy fails, clean up the partial file. Best effort.
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}

	return relativePath, nil
}

// Read opens a blob for reading given its relative path.
func (s *Storage) Read(filePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.rootPath, filePath)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a single blob. A missing blob is not an error.
func (s *Storage) Delete(filePath string) error {
	fullPath := filepath.Join(s.rootPath, filePath)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// WalkFiles lists the relative paths of every stored blob.
func (s *Storage) WalkFiles() ([]string, error) {
	var paths []string
	err := filepath.Walk(s.rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.rootPath, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk storage root: %w", err)
	}
	return paths, nil
}

// ModTime reports when a blob was last written.
func (s *Storage) ModTime(filePath string) (time.Time, error) {
	info, err := os.Stat(filepath.Join(s.rootPath, filePath))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.ModTime(), nil
}
