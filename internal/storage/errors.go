package storage

import "errors"

// Sentinel errors drawn from the error taxonomy. Backends return these
// directly; the protocol adapter maps them to HTTP status and code.
var (
	ErrBucketExists   = errors.New("bucket already exists")
	ErrNoSuchBucket   = errors.New("no such bucket")
	ErrBucketNotEmpty = errors.New("bucket not empty")
	ErrNoSuchKey      = errors.New("no such key")

	// ErrInvalidBackend is surfaced only from the facade's backend setter;
	// it is never a runtime HTTP path.
	ErrInvalidBackend = errors.New("invalid storage backend")
)
