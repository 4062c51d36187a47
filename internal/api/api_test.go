package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/blobtasks/internal/storage"
	"github.com/andresuchdata/blobtasks/internal/taskrun"
)

func newTestRouter(creds storage.Credentials) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(creds, taskrun.NewRunner(taskrun.Config{}), []string{"*"})
}

func TestHealth(t *testing.T) {
	router := newTestRouter(storage.NewMemoryCredentials())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDownloadBlob(t *testing.T) {
	creds := storage.NewMemoryCredentials()
	creds.Seed("files", "docs/readme.txt", []byte("hello"))
	router := newTestRouter(creds)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/containers/files/blobs/docs/readme.txt", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
}

func TestDownloadMissingBlob(t *testing.T) {
	router := newTestRouter(storage.NewMemoryCredentials())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/containers/files/blobs/absent", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUploadBlobWithKey(t *testing.T) {
	creds := storage.NewMemoryCredentials()
	router := newTestRouter(creds)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/files/blobs?blob=report.csv", bytes.NewReader([]byte("a,b")))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Container string `json:"container"`
		Blob      string `json:"blob"`
		Size      int    `json:"size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "files", resp.Container)
	assert.Equal(t, "report.csv", resp.Blob)
	assert.Equal(t, 3, resp.Size)

	data, ok := creds.Object("files", "report.csv")
	require.True(t, ok)
	assert.Equal(t, []byte("a,b"), data)
}

func TestUploadBlobGeneratesKey(t *testing.T) {
	creds := storage.NewMemoryCredentials()
	router := newTestRouter(creds)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/files/blobs", bytes.NewReader([]byte("content")))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Blob string `json:"blob"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Blob)

	_, ok := creds.Object("files", resp.Blob)
	assert.True(t, ok)
}

func TestUploadBlobConflict(t *testing.T) {
	creds := storage.NewMemoryCredentials()
	creds.Seed("files", "taken", []byte("original"))
	router := newTestRouter(creds)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/files/blobs?blob=taken", bytes.NewReader([]byte("new")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	data, _ := creds.Object("files", "taken")
	assert.Equal(t, []byte("original"), data)
}

func TestUploadBlobOverwrite(t *testing.T) {
	creds := storage.NewMemoryCredentials()
	creds.Seed("files", "taken", []byte("original"))
	router := newTestRouter(creds)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/files/blobs?blob=taken&overwrite=true", bytes.NewReader([]byte("new")))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	data, _ := creds.Object("files", "taken")
	assert.Equal(t, []byte("new"), data)
}

func TestUploadBlobInvalidOverwriteFlag(t *testing.T) {
	router := newTestRouter(storage.NewMemoryCredentials())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/files/blobs?overwrite=sometimes", bytes.NewReader([]byte("x")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBlobs(t *testing.T) {
	creds := storage.NewMemoryCredentials()
	creds.Seed("files", "one", []byte("1"))
	creds.Seed("files", "two", []byte("22"))
	router := newTestRouter(creds)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/containers/files/blobs", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Container string             `json:"container"`
		Blobs     []storage.BlobInfo `json:"blobs"`
		Count     int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "files", resp.Container)
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Blobs, 2)
}
