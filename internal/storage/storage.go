package storage

import (
	"context"
	"errors"
	"time"
)

// ErrBlobExists is returned by BlobClient.Upload when overwrite is false and
// an object already exists under the requested key. The existing object is
// left untouched.
var ErrBlobExists = errors.New("blob already exists")

// BlobInfo describes one object in a container, as reported by the backing
// service. Fields are passed through unmodified.
type BlobInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
}

// BlobClient is a client handle scoped to a single (container, blob) pair.
// Callers must Close it when the operation finishes, success or failure.
type BlobClient interface {
	// Download fetches the full content of the blob.
	Download(ctx context.Context) ([]byte, error)

	// Upload writes data to the blob. When overwrite is false and the blob
	// already exists, it fails with ErrBlobExists and writes nothing.
	Upload(ctx context.Context, data []byte, overwrite bool) error

	Close() error
}

// ContainerClient is a client handle scoped to a single container. Close
// releases the enumeration cursor; it must be called exactly once.
type ContainerClient interface {
	// ListBlobs materializes metadata for every blob in the container, in
	// whatever order the backing service yields.
	ListBlobs(ctx context.Context) ([]BlobInfo, error)

	Close() error
}

// Credentials produces scoped client handles for blob operations. The handle
// is borrowed for the duration of a single operation; implementations own
// connection lifecycle and authentication.
type Credentials interface {
	BlobClient(ctx context.Context, container, blob string) (BlobClient, error)
	ContainerClient(ctx context.Context, container string) (ContainerClient, error)
}
