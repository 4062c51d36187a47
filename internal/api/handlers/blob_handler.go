package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/blobtasks/internal/storage"
	"github.com/andresuchdata/blobtasks/internal/taskrun"
	"github.com/andresuchdata/blobtasks/internal/tasks"
)

// BlobHandler exposes the blob tasks over HTTP. Each request is one task run.
type BlobHandler struct {
	creds  storage.Credentials
	runner *taskrun.Runner
}

func NewBlobHandler(creds storage.Credentials, runner *taskrun.Runner) *BlobHandler {
	return &BlobHandler{creds: creds, runner: runner}
}

// ListBlobs returns metadata for every blob in a container
func (h *BlobHandler) ListBlobs(c *gin.Context) {
	container := c.Param("container")

	var blobs []storage.BlobInfo
	_, err := h.runner.Run(c.Request.Context(), "blob-list", func(ctx context.Context) error {
		var err error
		blobs, err = tasks.List(ctx, container, h.creds)
		return err
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"container": container,
		"blobs":     blobs,
		"count":     len(blobs),
	})
}

// DownloadBlob streams the full content of a blob back to the caller
func (h *BlobHandler) DownloadBlob(c *gin.Context) {
	container := c.Param("container")
	blob := strings.TrimPrefix(c.Param("blob"), "/")
	if blob == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blob key is required"})
		return
	}

	var data []byte
	_, err := h.runner.Run(c.Request.Context(), "blob-download", func(ctx context.Context) error {
		var err error
		data, err = tasks.Download(ctx, container, blob, h.creds)
		return err
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}

// UploadBlob writes the raw request body into a container. The destination
// key comes from the blob query parameter; when absent one is generated and
// returned in the response.
func (h *BlobHandler) UploadBlob(c *gin.Context) {
	container := c.Param("container")

	overwrite := false
	if raw := c.Query("overwrite"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid overwrite flag"})
			return
		}
		overwrite = parsed
	}

	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var key string
	_, err = h.runner.Run(c.Request.Context(), "blob-upload", func(ctx context.Context) error {
		var err error
		key, err = tasks.Upload(ctx, data, container, h.creds, tasks.UploadOptions{
			Blob:      c.Query("blob"),
			Overwrite: overwrite,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrBlobExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"container": container,
		"blob":      key,
		"size":      len(data),
	})
}
