package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"dwellhub/backend/internal/api/middleware"
	"dwellhub/backend/internal/cache"
	"dwellhub/backend/internal/config"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
)

// PropertyHandler handles listing endpoints.
type PropertyHandler struct {
	cfg             *config.Config
	propertyService services.IPropertyService
	rdb             *redis.Client
	log             *zap.Logger
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(cfg *config.Config, propertyService services.IPropertyService, rdb *redis.Client, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		cfg:             cfg,
		propertyService: propertyService,
		rdb:             rdb,
		log:             logger,
	}
}

// parseSearchParams reads the public query filters. Invalid numeric values
// are ignored rather than rejected, matching lenient browser query strings.
func parseSearchParams(c *gin.Context) services.SearchParams {
	params := services.SearchParams{
		Search: c.Query("search"),
		City:   c.Query("city"),
		Sort:   c.Query("sort"),
		Page:   1,
		Limit:  services.DefaultPageSize,
	}

	// "type" is accepted as a shorthand for "propertyType".
	params.PropertyType = c.Query("propertyType")
	if params.PropertyType == "" {
		params.PropertyType = c.Query("type")
	}

	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil && v >= 0 {
		params.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil && v >= 0 {
		params.MaxPrice = &v
	}
	if v, err := strconv.Atoi(c.Query("bedrooms")); err == nil && v > 0 {
		params.Bedrooms = &v
	}
	if v, err := strconv.Atoi(c.Query("bathrooms")); err == nil && v > 0 {
		params.Bathrooms = &v
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		params.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		params.Limit = v
	}
	return params
}

// searchCacheKey builds a stable cache key from the parsed params.
func searchCacheKey(params services.SearchParams) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("properties:search:%x", data)
}

// Search handles GET /api/properties. Results are cached briefly in Redis;
// the short TTL bounds the staleness a moderation decision can show.
func (h *PropertyHandler) Search(c *gin.Context) {
	params := parseSearchParams(c)
	key := searchCacheKey(params)

	if h.rdb != nil {
		var cached services.SearchResult
		err := cache.GetJSON(c.Request.Context(), h.rdb, key, &cached)
		if err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
		if err != cache.ErrMiss {
			h.log.Warn("listing cache read failed", zap.Error(err))
		}
	}

	result, err := h.propertyService.Search(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if h.rdb != nil {
		if err := cache.SetJSON(c.Request.Context(), h.rdb, key, result, h.cfg.GetCacheTTL); err != nil {
			h.log.Warn("listing cache write failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/properties/:idOrSlug. Not cached: every fetch must
// count a view.
func (h *PropertyHandler) Get(c *gin.Context) {
	property, err := h.propertyService.FindBySlugOrID(c.Request.Context(), c.Param("idOrSlug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

type createPropertyRequest struct {
	Title        string          `json:"title" binding:"required,max=100"`
	Description  string          `json:"description" binding:"max=5000"`
	Price        float64         `json:"price" binding:"min=0"`
	Location     models.Location `json:"location"`
	Bedrooms     int             `json:"bedrooms" binding:"min=0"`
	Bathrooms    int             `json:"bathrooms" binding:"min=0"`
	AreaSqft     float64         `json:"areaSqft" binding:"min=0"`
	PropertyType string          `json:"propertyType" binding:"required"`
	Amenities    []string        `json:"amenities"`
	Images       []string        `json:"images"`
	CoverImage   string          `json:"coverImage"`
}

// Create handles POST /api/properties. Agent or admin only (enforced by
// route middleware).
func (h *PropertyHandler) Create(c *gin.Context) {
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing payload: " + err.Error()})
		return
	}

	user := middleware.CurrentUser(c)
	property, err := h.propertyService.Create(c.Request.Context(), user.ID, &models.Property{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Location:     req.Location,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		AreaSqft:     req.AreaSqft,
		PropertyType: models.PropertyType(req.PropertyType),
		Amenities:    req.Amenities,
		Images:       req.Images,
		CoverImage:   req.CoverImage,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

// Update handles PUT /api/properties/:id. The payload is decoded strictly
// so a typoed or disallowed field fails loudly instead of being dropped.
func (h *PropertyHandler) Update(c *gin.Context) {
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()

	var req struct {
		Title        *string          `json:"title"`
		Description  *string          `json:"description"`
		Price        *float64         `json:"price"`
		Location     *models.Location `json:"location"`
		Bedrooms     *int             `json:"bedrooms"`
		Bathrooms    *int             `json:"bathrooms"`
		AreaSqft     *float64         `json:"areaSqft"`
		PropertyType *string          `json:"propertyType"`
		Amenities    *[]string        `json:"amenities"`
		Images       *[]string        `json:"images"`
		CoverImage   *string          `json:"coverImage"`
	}
	if err := decoder.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update payload: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Bedrooms != nil {
		updates["bedrooms"] = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		updates["bathrooms"] = *req.Bathrooms
	}
	if req.AreaSqft != nil {
		updates["areaSqft"] = *req.AreaSqft
	}
	if req.PropertyType != nil {
		updates["propertyType"] = *req.PropertyType
	}
	if req.Amenities != nil {
		updates["amenities"] = *req.Amenities
	}
	if req.Images != nil {
		updates["images"] = *req.Images
	}
	if req.CoverImage != nil {
		updates["coverImage"] = *req.CoverImage
	}

	user := middleware.CurrentUser(c)
	updated, err := h.propertyService.Update(c.Request.Context(), propertyID, user.ID,
		user.Role == models.RoleAdmin, updates)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/properties/:id.
func (h *PropertyHandler) Delete(c *gin.Context) {
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.propertyService.Delete(c.Request.Context(), propertyID, user.ID,
		user.Role == models.RoleAdmin); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
}

// Publish handles POST /api/properties/:id/publish, resubmitting a rejected
// listing for moderation.
func (h *PropertyHandler) Publish(c *gin.Context) {
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.propertyService.Publish(c.Request.Context(), propertyID, user.ID,
		user.Role == models.RoleAdmin); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Property resubmitted for approval"})
}

// Stats handles GET /api/properties/:id/stats.
func (h *PropertyHandler) Stats(c *gin.Context) {
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	user := middleware.CurrentUser(c)
	stats, err := h.propertyService.Stats(c.Request.Context(), propertyID, user.ID,
		user.Role == models.RoleAdmin)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MyListings handles GET /api/properties/agent/my-listings.
func (h *PropertyHandler) MyListings(c *gin.Context) {
	user := middleware.CurrentUser(c)
	properties, err := h.propertyService.FindByAgent(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": properties})
}
