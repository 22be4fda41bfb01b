package storage

import "context"

// BackendName identifies a known backend implementation for configuration
// purposes.
type BackendName string

const (
	BackendFilesystem BackendName = "filesystem"
	BackendMemory     BackendName = "memory"
)

// Facade selects the active backend by configuration and forwards every
// storage call to it. It exists so the rest of the server depends on a
// single stable type rather than reaching into whichever backend happens
// to be configured.
type Facade struct {
	backend Backend
}

// NewFacade wraps backend. backend must be non-nil and already satisfy the
// Backend contract; NewFacade does not validate it beyond the type system,
// since Go's interfaces already reject anything that doesn't implement
// Backend at compile time.
func NewFacade(backend Backend) (*Facade, error) {
	if backend == nil {
		return nil, ErrInvalidBackend
	}
	return &Facade{backend: backend}, nil
}

// SetBackend swaps the active backend. Returns ErrInvalidBackend if backend
// is nil.
func (f *Facade) SetBackend(backend Backend) error {
	if backend == nil {
		return ErrInvalidBackend
	}
	f.backend = backend
	return nil
}

func (f *Facade) StorageRoot() string { return f.backend.StorageRoot() }

func (f *Facade) Init(ctx context.Context) error    { return f.backend.Init(ctx) }
func (f *Facade) CleanUp(ctx context.Context) error { return f.backend.CleanUp(ctx) }

func (f *Facade) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	return f.backend.ListBuckets(ctx)
}

func (f *Facade) CreateBucket(ctx context.Context, name string) error {
	return f.backend.CreateBucket(ctx, name)
}

func (f *Facade) DeleteBucket(ctx context.Context, name string) error {
	return f.backend.DeleteBucket(ctx, name)
}

func (f *Facade) ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	return f.backend.ListObjects(ctx, bucket)
}

func (f *Facade) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	return f.backend.PutObject(ctx, bucket, key, data)
}

func (f *Facade) GetObject(ctx context.Context, bucket, key string) ([]byte, ObjectInfo, error) {
	return f.backend.GetObject(ctx, bucket, key)
}

func (f *Facade) DeleteObject(ctx context.Context, bucket, key string) error {
	return f.backend.DeleteObject(ctx, bucket, key)
}
