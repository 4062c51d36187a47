package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig encapsulates the connection info for an S3-compatible service.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// MinioCredentials implements Credentials on top of a minio client. A single
// underlying client is shared; scoped handles carry only the container/blob
// binding.
type MinioCredentials struct {
	client *minio.Client
}

// NewMinioCredentials builds a credentials provider from connection config.
func NewMinioCredentials(cfg MinioConfig) (*MinioCredentials, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials must be provided")
	}

	// minio expects host[:port], not a URL
	endpoint := strings.TrimPrefix(cfg.Endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioCredentials{client: client}, nil
}

// BlobClient returns a handle scoped to one (container, blob) pair.
func (c *MinioCredentials) BlobClient(ctx context.Context, container, blob string) (BlobClient, error) {
	if container == "" || blob == "" {
		return nil, fmt.Errorf("container and blob must be provided")
	}
	return &minioBlobClient{client: c.client, container: container, blob: blob}, nil
}

// ContainerClient returns a handle scoped to one container. The enumeration
// cursor lives until Close is called.
func (c *MinioCredentials) ContainerClient(ctx context.Context, container string) (ContainerClient, error) {
	if container == "" {
		return nil, fmt.Errorf("container must be provided")
	}
	cursorCtx, cancel := context.WithCancel(ctx)
	return &minioContainerClient{client: c.client, container: container, cursorCtx: cursorCtx, cancel: cancel}, nil
}

var _ Credentials = (*MinioCredentials)(nil)

type minioBlobClient struct {
	client    *minio.Client
	container string
	blob      string
}

func (b *minioBlobClient) Download(ctx context.Context) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.container, b.blob, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	return io.ReadAll(obj)
}

func (b *minioBlobClient) Upload(ctx context.Context, data []byte, overwrite bool) error {
	if !overwrite {
		_, err := b.client.StatObject(ctx, b.container, b.blob, minio.StatObjectOptions{})
		if err == nil {
			return fmt.Errorf("%s/%s: %w", b.container, b.blob, ErrBlobExists)
		}
		if resp := minio.ToErrorResponse(err); resp.Code != "NoSuchKey" {
			return err
		}
	}

	_, err := b.client.PutObject(ctx, b.container, b.blob, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (b *minioBlobClient) Close() error {
	// nothing held beyond the shared client
	return nil
}

type minioContainerClient struct {
	client    *minio.Client
	container string
	cursorCtx context.Context
	cancel    context.CancelFunc
}

func (c *minioContainerClient) ListBlobs(ctx context.Context) ([]BlobInfo, error) {
	blobs := make([]BlobInfo, 0)
	for obj := range c.client.ListObjects(c.cursorCtx, c.container, minio.ListObjectsOptions{Recursive: true}) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if obj.Err != nil {
			return nil, obj.Err
		}
		blobs = append(blobs, BlobInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
			ContentType:  obj.ContentType,
		})
	}
	return blobs, nil
}

func (c *minioContainerClient) Close() error {
	c.cancel()
	return nil
}
