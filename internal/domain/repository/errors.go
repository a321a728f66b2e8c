package repository

import "errors"

var (
	// ErrVideoNotFound is returned when a video record cannot be found in the ledger.
	ErrVideoNotFound = errors.New("video not found")

	// ErrObjectNotFound is returned when a requested object does not exist in storage.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)
