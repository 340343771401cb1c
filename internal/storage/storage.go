// Package storage archives exported report documents to object storage.
// The backend is pluggable; MinIO and Google Cloud Storage are provided.
package storage

import (
	"bytes"
	"context"
	"io"
)

// ObjectStorage defines the object operations used by the archive.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// Archive wraps an ObjectStorage backend with a stable API.
type Archive struct {
	backend ObjectStorage
}

// NewArchive constructs an Archive wrapper for the provided backend.
func NewArchive(backend ObjectStorage) *Archive {
	return &Archive{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	return a.backend.EnsureBucket(ctx)
}

// Store writes one exported document under the given key.
func (a *Archive) Store(ctx context.Context, key string, data []byte, contentType string) error {
	return a.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

// Bucket returns the configured bucket name.
func (a *Archive) Bucket() string {
	return a.backend.Bucket()
}
