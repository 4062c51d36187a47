package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/blobtasks/internal/api/handlers"
	"github.com/andresuchdata/blobtasks/internal/api/middleware"
	"github.com/andresuchdata/blobtasks/internal/storage"
	"github.com/andresuchdata/blobtasks/internal/taskrun"
)

// NewRouter builds the HTTP surface over the blob tasks.
func NewRouter(creds storage.Credentials, runner *taskrun.Runner, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if normalized, allowAll := normalizeAllowedOrigins(allowedOrigins); allowAll {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else if len(normalized) > 0 {
		corsConfig.AllowOrigins = normalized
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	blobHandler := handlers.NewBlobHandler(creds, runner)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/containers/:container/blobs", blobHandler.ListBlobs)
		v1.GET("/containers/:container/blobs/*blob", blobHandler.DownloadBlob)
		v1.POST("/containers/:container/blobs", blobHandler.UploadBlob)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			return nil, true
		}
		normalized = append(normalized, strings.TrimSuffix(origin, "/"))
	}
	return normalized, false
}
