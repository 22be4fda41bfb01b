package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"ps3/internal/sandbox"
)

// memorySentinelRoot is the opaque descriptor StorageRoot returns for the
// memory backend; there is no filesystem path to report.
const memorySentinelRoot = "memory://"

// MemoryBackend keeps buckets and objects in process memory. When a
// sandbox registry is configured and enabled, the containers backing each
// operation are resolved per-task through the registry (see
// internal/sandbox); otherwise a single well-known pair is shared across
// the whole process.
type MemoryBackend struct {
	registry *sandbox.Registry

	wellKnownOnce sync.Once
	wellKnownBkt  *sandbox.BucketContainer
	wellKnownObj  *sandbox.ObjectContainer
}

// NewMemoryBackend constructs a memory backend. registry may be nil, in
// which case the backend always uses the well-known containers.
func NewMemoryBackend(registry *sandbox.Registry) *MemoryBackend {
	return &MemoryBackend{registry: registry}
}

func (b *MemoryBackend) StorageRoot() string {
	return memorySentinelRoot
}

func (b *MemoryBackend) containers(ctx context.Context) (*sandbox.BucketContainer, *sandbox.ObjectContainer, error) {
	if b.registry == nil || !b.registry.Enabled() {
		b.wellKnownOnce.Do(func() {
			b.wellKnownBkt, b.wellKnownObj = sandbox.NewContainerPair()
		})
		return b.wellKnownBkt, b.wellKnownObj, nil
	}
	task := sandbox.TaskFromContext(ctx)
	return b.registry.ResolveContainers(task)
}

// Init materializes the current task's containers in sandbox mode, or the
// well-known pair otherwise. Either way containers() already does the
// materialization lazily, so Init just forces it once up front.
func (b *MemoryBackend) Init(ctx context.Context) error {
	_, _, err := b.containers(ctx)
	return err
}

// CleanUp drops every bucket and object visible to the caller under the
// current task's resolved containers.
func (b *MemoryBackend) CleanUp(ctx context.Context) error {
	buckets, objects, err := b.containers(ctx)
	if err != nil {
		return err
	}
	buckets.Clear()
	objects.Clear()
	return nil
}

func (b *MemoryBackend) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	buckets, _, err := b.containers(ctx)
	if err != nil {
		return nil, err
	}
	records := buckets.List()
	out := make([]BucketInfo, 0, len(records))
	for name, rec := range records {
		out = append(out, BucketInfo{Name: name, CreationDate: time.Unix(0, rec.CreationDate).UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *MemoryBackend) CreateBucket(ctx context.Context, name string) error {
	buckets, _, err := b.containers(ctx)
	if err != nil {
		return err
	}
	rec := sandbox.BucketRecord{CreationDate: time.Now().UTC().UnixNano()}
	if !buckets.PutIfAbsent(name, rec) {
		return ErrBucketExists
	}
	return nil
}

func (b *MemoryBackend) DeleteBucket(ctx context.Context, name string) error {
	buckets, objects, err := b.containers(ctx)
	if err != nil {
		return err
	}
	if _, ok := buckets.Get(name); !ok {
		return ErrNoSuchBucket
	}
	if objects.HasBucket(name) {
		return ErrBucketNotEmpty
	}
	buckets.Delete(name)
	return nil
}

func (b *MemoryBackend) ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	buckets, objects, err := b.containers(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := buckets.Get(bucket); !ok {
		return nil, ErrNoSuchBucket
	}
	records := objects.ListBucket(bucket)
	out := make([]ObjectInfo, 0, len(records))
	for key, rec := range records {
		out = append(out, ObjectInfo{
			Key:          key.Key,
			Size:         int64(len(rec.Bytes)),
			LastModified: time.Unix(0, rec.LastModified).UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *MemoryBackend) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	buckets, objects, err := b.containers(ctx)
	if err != nil {
		return err
	}
	if _, ok := buckets.Get(bucket); !ok {
		return ErrNoSuchBucket
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	objects.Put(sandbox.ObjectKey{Bucket: bucket, Key: key}, sandbox.ObjectRecord{
		Bytes:        cp,
		LastModified: time.Now().UTC().UnixNano(),
	})
	return nil
}

func (b *MemoryBackend) GetObject(ctx context.Context, bucket, key string) ([]byte, ObjectInfo, error) {
	buckets, objects, err := b.containers(ctx)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	if _, ok := buckets.Get(bucket); !ok {
		return nil, ObjectInfo{}, ErrNoSuchBucket
	}
	rec, ok := objects.Get(sandbox.ObjectKey{Bucket: bucket, Key: key})
	if !ok {
		return nil, ObjectInfo{}, ErrNoSuchKey
	}
	return rec.Bytes, ObjectInfo{
		Key:          key,
		Size:         int64(len(rec.Bytes)),
		LastModified: time.Unix(0, rec.LastModified).UTC(),
	}, nil
}

func (b *MemoryBackend) DeleteObject(ctx context.Context, bucket, key string) error {
	buckets, objects, err := b.containers(ctx)
	if err != nil {
		return err
	}
	if _, ok := buckets.Get(bucket); !ok {
		return ErrNoSuchBucket
	}
	objectKey := sandbox.ObjectKey{Bucket: bucket, Key: key}
	if _, ok := objects.Get(objectKey); !ok {
		return ErrNoSuchKey
	}
	objects.Delete(objectKey)
	return nil
}
