package kvstore

import "errors"

var (
	// ErrReadOnly indicates a write was attempted inside View.
	ErrReadOnly = errors.New("kvstore: write in read-only transaction")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("kvstore: store is closed")

	// ErrInvalidBucket indicates an empty or malformed bucket name.
	ErrInvalidBucket = errors.New("kvstore: invalid bucket name")

	// ErrEmptyKey indicates a zero-length key.
	ErrEmptyKey = errors.New("kvstore: empty key")
)
