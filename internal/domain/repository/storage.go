package repository

import "context"

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
// The bucket is fixed at construction; keys are paths within it.
type ObjectStorage interface {
	// Fetch downloads an object to a local file path.
	// Returns ErrObjectNotFound if the key does not exist.
	Fetch(ctx context.Context, key, destPath string) error

	// Store uploads a local file to the given key with the given content type.
	// Returns the revision tag (etag) reported by the storage backend.
	Store(ctx context.Context, key, srcPath, contentType string) (string, error)
}
