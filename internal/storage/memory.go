package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// MemoryCredentials is an in-process Credentials implementation backed by a
// map. It backs local development and acts as the vendor-client double in
// tests. Err, when set, is returned by every client call to simulate a
// failing backend.
type MemoryCredentials struct {
	mu         sync.RWMutex
	containers map[string]map[string]memObject

	// Err forces all scoped clients to fail with this exact error.
	Err error
}

type memObject struct {
	data     []byte
	modified time.Time
	etag     string
}

// NewMemoryCredentials creates an empty in-memory provider.
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{containers: make(map[string]map[string]memObject)}
}

// Seed inserts an object directly, bypassing the client path. Intended for
// fixtures.
func (m *MemoryCredentials) Seed(container, blob string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(container, blob, data)
}

// Object returns the stored content of a blob, or false when absent.
func (m *MemoryCredentials) Object(container, blob string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.containers[container][blob]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

func (m *MemoryCredentials) put(container, blob string, data []byte) {
	bucket, ok := m.containers[container]
	if !ok {
		bucket = make(map[string]memObject)
		m.containers[container] = bucket
	}
	sum := md5.Sum(data)
	bucket[blob] = memObject{
		data:     append([]byte(nil), data...),
		modified: time.Now().UTC(),
		etag:     hex.EncodeToString(sum[:]),
	}
}

func (m *MemoryCredentials) BlobClient(ctx context.Context, container, blob string) (BlobClient, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &memBlobClient{store: m, container: container, blob: blob}, nil
}

func (m *MemoryCredentials) ContainerClient(ctx context.Context, container string) (ContainerClient, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &memContainerClient{store: m, container: container}, nil
}

var _ Credentials = (*MemoryCredentials)(nil)

type memBlobClient struct {
	store     *MemoryCredentials
	container string
	blob      string
}

func (b *memBlobClient) Download(ctx context.Context) ([]byte, error) {
	if b.store.Err != nil {
		return nil, b.store.Err
	}
	data, ok := b.store.Object(b.container, b.blob)
	if !ok {
		return nil, fmt.Errorf("blob %s/%s not found", b.container, b.blob)
	}
	return data, nil
}

func (b *memBlobClient) Upload(ctx context.Context, data []byte, overwrite bool) error {
	if b.store.Err != nil {
		return b.store.Err
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	if _, exists := b.store.containers[b.container][b.blob]; exists && !overwrite {
		return fmt.Errorf("%s/%s: %w", b.container, b.blob, ErrBlobExists)
	}
	b.store.put(b.container, b.blob, data)
	return nil
}

func (b *memBlobClient) Close() error {
	return nil
}

type memContainerClient struct {
	store     *MemoryCredentials
	container string
}

func (c *memContainerClient) ListBlobs(ctx context.Context) ([]BlobInfo, error) {
	if c.store.Err != nil {
		return nil, c.store.Err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	blobs := make([]BlobInfo, 0, len(c.store.containers[c.container]))
	for key, obj := range c.store.containers[c.container] {
		blobs = append(blobs, BlobInfo{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
			ETag:         obj.etag,
			ContentType:  "application/octet-stream",
		})
	}
	return blobs, nil
}

func (c *memContainerClient) Close() error {
	return nil
}
