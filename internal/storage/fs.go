package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FSBackend stores buckets as directories and objects as files nested
// under them, one directory segment per `/` in the key. Size and
// last-modified are derived from the filesystem itself; no separate
// metadata is kept.
type FSBackend struct {
	rootDir    string
	mutationMu sync.RWMutex
}

// NewFSBackend constructs a backend rooted at rootDir. The directory is not
// created until Init is called.
func NewFSBackend(rootDir string) *FSBackend {
	return &FSBackend{rootDir: filepath.Clean(rootDir)}
}

func (b *FSBackend) StorageRoot() string {
	return b.rootDir
}

// Init ensures the storage root exists. It never wipes existing state; use
// CleanUp for that.
func (b *FSBackend) Init(ctx context.Context) error {
	if err := ensureContext(ctx); err != nil {
		return err
	}
	if err := os.MkdirAll(b.rootDir, 0o755); err != nil {
		return fmt.Errorf("init storage root: %w", err)
	}
	return nil
}

// CleanUp drops every bucket and object under the storage root.
func (b *FSBackend) CleanUp(ctx context.Context) error {
	if err := ensureContext(ctx); err != nil {
		return err
	}
	b.mutationMu.Lock()
	defer b.mutationMu.Unlock()

	entries, err := os.ReadDir(b.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clean up: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(b.rootDir, entry.Name())); err != nil {
			return fmt.Errorf("clean up %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (b *FSBackend) bucketPath(name string) string {
	return filepath.Join(b.rootDir, name)
}

// objectPath maps a key's `/`-separated segments onto nested directories.
func (b *FSBackend) objectPath(bucket, key string) string {
	segments := strings.Split(key, "/")
	parts := append([]string{b.bucketPath(bucket)}, segments...)
	return filepath.Join(parts...)
}

func (b *FSBackend) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	if err := ensureContext(ctx); err != nil {
		return nil, err
	}
	b.mutationMu.RLock()
	defer b.mutationMu.RUnlock()

	entries, err := os.ReadDir(b.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	buckets := make([]BucketInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat bucket %s: %w", entry.Name(), err)
		}
		buckets = append(buckets, BucketInfo{
			Name:         entry.Name(),
			CreationDate: info.ModTime().UTC(),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Name < buckets[j].Name })
	return buckets, nil
}

func (b *FSBackend) CreateBucket(ctx context.Context, name string) error {
	if err := ensureContext(ctx); err != nil {
		return err
	}
	b.mutationMu.Lock()
	defer b.mutationMu.Unlock()

	path := b.bucketPath(name)
	if _, err := os.Stat(path); err == nil {
		return ErrBucketExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat bucket %s: %w", name, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	return nil
}

func (b *FSBackend) DeleteBucket(ctx context.Context, name string) error {
	if err := ensureContext(ctx); err != nil {
		return err
	}
	b.mutationMu.Lock()
	defer b.mutationMu.Unlock()

	path := b.bucketPath(name)
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoSuchBucket
		}
		return fmt.Errorf("read bucket %s: %w", name, err)
	}
	if len(entries) > 0 {
		return ErrBucketNotEmpty
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, err)
	}
	return nil
}

// ListObjects performs a depth-first walk of the bucket directory, yielding
// leaf files only, with keys reconstructed as path segments joined by `/`.
func (b *FSBackend) ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	if err := ensureContext(ctx); err != nil {
		return nil, err
	}
	b.mutationMu.RLock()
	defer b.mutationMu.RUnlock()

	root := b.bucketPath(bucket)
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSuchBucket
		}
		return nil, fmt.Errorf("stat bucket %s: %w", bucket, err)
	}

	var objects []ObjectInfo
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects in %s: %w", bucket, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (b *FSBackend) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ensureContext(ctx); err != nil {
		return err
	}
	b.mutationMu.Lock()
	defer b.mutationMu.Unlock()

	if _, err := os.Stat(b.bucketPath(bucket)); err != nil {
		if os.IsNotExist(err) {
			return ErrNoSuchBucket
		}
		return fmt.Errorf("stat bucket %s: %w", bucket, err)
	}

	path := b.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dirs for %s/%s: %w", bucket, key, err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (b *FSBackend) GetObject(ctx context.Context, bucket, key string) ([]byte, ObjectInfo, error) {
	if err := ensureContext(ctx); err != nil {
		return nil, ObjectInfo{}, err
	}
	b.mutationMu.RLock()
	defer b.mutationMu.RUnlock()

	path := b.objectPath(bucket, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, ErrNoSuchKey
		}
		return nil, ObjectInfo{}, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
	}
	return data, ObjectInfo{
		Key:          key,
		Size:         stat.Size(),
		LastModified: stat.ModTime().UTC(),
	}, nil
}

func (b *FSBackend) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := ensureContext(ctx); err != nil {
		return err
	}
	b.mutationMu.Lock()
	defer b.mutationMu.Unlock()

	path := b.objectPath(bucket, key)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNoSuchKey
		}
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	pruneEmptyParents(filepath.Dir(path), b.bucketPath(bucket))
	return nil
}

// pruneEmptyParents removes now-empty intermediate directories created for
// nested keys, stopping at (and never removing) the bucket directory
// itself.
func pruneEmptyParents(dir, stopAt string) {
	for dir != stopAt {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func ensureContext(ctx context.Context) error {
	if ctx == nil {
		return context.Canceled
	}
	return ctx.Err()
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "ps3-atomic-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
