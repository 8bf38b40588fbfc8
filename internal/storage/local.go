package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes images into a directory on disk and serves them back
// through the uploads endpoint.
type LocalStorage struct {
	dir string
}

// NewLocalStorage ensures the upload directory exists.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Save writes the image under a sanitised name and returns that name.
func (s *LocalStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	name = SanitizeName(name)
	if name == "" {
		return "", errors.New("local storage: empty file name")
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write image file: %w", err)
	}

	return name, nil
}

// Remove deletes a stored image; a missing file is not an error.
func (s *LocalStorage) Remove(_ context.Context, name string) error {
	name = SanitizeName(name)
	if name == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}

// Open returns the stored image bytes for serving.
func (s *LocalStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	name = SanitizeName(name)
	if name == "" {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open image file: %w", err)
	}
	return f, nil
}

// SanitizeName strips path separators and traversal from an uploaded file
// name, keeping only its base component.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

var _ ImageStorage = (*LocalStorage)(nil)
var _ ImageOpener = (*LocalStorage)(nil)
