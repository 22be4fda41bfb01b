// Package storage defines the storage backend contract shared by the
// filesystem and memory backends, and the facade that selects between them.
package storage

import (
	"context"
	"time"
)

// BucketInfo describes a bucket returned by ListBuckets.
type BucketInfo struct {
	Name         string
	CreationDate time.Time
}

// ObjectInfo describes an object returned by ListObjects.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Backend is the uniform storage contract. Every method except StorageRoot
// takes a context: the filesystem backend checks it for cancellation before
// starting an operation, and the memory backend reads the sandbox task
// identity from it. No method blocks on a lock held indefinitely.
type Backend interface {
	// StorageRoot returns a backend-specific opaque descriptor: a directory
	// path for the filesystem backend, or a sentinel for the memory
	// backend.
	StorageRoot() string

	// Init prepares the backend. Idempotent; never destructive.
	Init(ctx context.Context) error

	// CleanUp drops every bucket and object visible to the caller.
	CleanUp(ctx context.Context) error

	ListBuckets(ctx context.Context) ([]BucketInfo, error)
	CreateBucket(ctx context.Context, name string) error
	DeleteBucket(ctx context.Context, name string) error

	// ListObjects also serves as the existence check for HeadBucket, and
	// GetObject for HeadObject; both HEAD operations are realized by reusing
	// GET handlers rather than adding backend methods of their own.
	ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}
