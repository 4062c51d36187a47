// Package tasks holds the blob storage task bodies: download, upload and
// list. Each one is a single linear exchange with the backing service —
// scoped client in, bytes or metadata out. Errors propagate to the caller
// unmodified; retry policy belongs to taskrun.
package tasks

import (
	"context"

	"github.com/google/uuid"

	"github.com/andresuchdata/blobtasks/internal/storage"
	"github.com/andresuchdata/blobtasks/internal/taskrun"
)

// Download fetches the full content of a blob from a container.
func Download(ctx context.Context, container, blob string, creds storage.Credentials) ([]byte, error) {
	taskrun.Logger(ctx).Info().
		Str("container", container).
		Str("blob", blob).
		Msg("downloading blob")

	client, err := creds.BlobClient(ctx, container, blob)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	return client.Download(ctx)
}

// UploadOptions carries the optional upload inputs.
type UploadOptions struct {
	// Blob is the destination key. When empty a fresh uuid is generated.
	Blob string

	// Overwrite permits replacing an existing object. When false and the key
	// already exists, the upload fails with storage.ErrBlobExists.
	Overwrite bool
}

// Upload writes data to a container and returns the resolved blob key,
// caller-supplied or generated.
func Upload(ctx context.Context, data []byte, container string, creds storage.Credentials, opts UploadOptions) (string, error) {
	blob := opts.Blob
	if blob == "" {
		blob = uuid.NewString()
	}

	taskrun.Logger(ctx).Info().
		Str("container", container).
		Str("blob", blob).
		Int("size", len(data)).
		Bool("overwrite", opts.Overwrite).
		Msg("uploading blob")

	client, err := creds.BlobClient(ctx, container, blob)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.Upload(ctx, data, opts.Overwrite); err != nil {
		return "", err
	}

	return blob, nil
}

// List materializes metadata for every blob in a container, in the order the
// backing service yields them.
func List(ctx context.Context, container string, creds storage.Credentials) ([]storage.BlobInfo, error) {
	taskrun.Logger(ctx).Info().
		Str("container", container).
		Msg("listing blobs")

	client, err := creds.ContainerClient(ctx, container)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	return client.ListBlobs(ctx)
}
