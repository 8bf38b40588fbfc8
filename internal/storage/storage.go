package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the named image does not exist in storage.
var ErrNotFound = errors.New("image not found")

// ImageStorage persists uploaded recipe images. Save returns the stored
// name or public location; the core treats it as an opaque reference.
type ImageStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, name string) error
}

// ImageOpener is implemented by backends that can serve image bytes
// directly (the local backend); object stores serve via their public URL.
type ImageOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
