package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"dwellhub/backend/internal/api/middleware"
	"dwellhub/backend/internal/config"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
	"dwellhub/backend/internal/storage"
)

// UploadHandler proxies listing image uploads to the media store.
type UploadHandler struct {
	cfg             *config.Config
	storage         storage.IMediaStorage
	propertyService services.IPropertyService
	log             *zap.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(cfg *config.Config, mediaStorage storage.IMediaStorage, propertyService services.IPropertyService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{cfg: cfg, storage: mediaStorage, propertyService: propertyService, log: logger}
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Upload handles POST /api/properties/upload. The whole batch is validated
// before any byte reaches the store; a failure mid-batch rolls back the
// objects already written so the client never receives a partial set.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart form with an 'images' field is required"})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one image is required"})
		return
	}
	if len(files) > h.cfg.ImageMaxBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("At most %d images per upload", h.cfg.ImageMaxBatch)})
		return
	}

	maxSize := int64(h.cfg.ImageMaxSizeMB) << 20
	for _, file := range files {
		if file.Size > maxSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s exceeds the %dMB size limit", file.Filename, h.cfg.ImageMaxSizeMB)})
			return
		}
		contentType := file.Header.Get("Content-Type")
		if !allowedImageTypes[strings.ToLower(contentType)] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s has unsupported type %q", file.Filename, contentType)})
			return
		}
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			h.rollback(c, urls)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		url, err := h.storage.Upload(c.Request.Context(), src,
			file.Filename, file.Header.Get("Content-Type"), file.Size)
		src.Close()
		if err != nil {
			h.log.Error("image upload failed", zap.String("filename", file.Filename), zap.Error(err))
			h.rollback(c, urls)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Image upload failed"})
			return
		}
		urls = append(urls, url)
	}

	// An optional propertyId field attaches the batch to an existing
	// listing in the same request.
	if pid := c.PostForm("propertyId"); pid != "" {
		propertyID, err := primitive.ObjectIDFromHex(pid)
		if err != nil {
			h.rollback(c, urls)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
			return
		}
		user := middleware.CurrentUser(c)
		err = h.propertyService.AddImages(c.Request.Context(), propertyID, user.ID,
			user.Role == models.RoleAdmin, urls)
		if err != nil {
			h.rollback(c, urls)
			handleServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"urls": urls})
}

func (h *UploadHandler) rollback(c *gin.Context, urls []string) {
	for _, url := range urls {
		if err := h.storage.Delete(c.Request.Context(), url); err != nil {
			h.log.Warn("failed to roll back uploaded image", zap.String("url", url), zap.Error(err))
		}
	}
}
