package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dwellhub/backend/internal/api/middleware"
	"dwellhub/backend/internal/services"
)

// WishlistHandler handles the wishlist endpoints.
type WishlistHandler struct {
	userService services.IUserService
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(userService services.IUserService) *WishlistHandler {
	return &WishlistHandler{userService: userService}
}

// Get handles GET /api/users/wishlist, resolving wishlist ids into full
// property documents.
func (h *WishlistHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	properties, err := h.userService.GetWishlist(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": properties})
}

// Toggle handles PUT /api/users/wishlist/:propertyId. Adds the property
// when absent, removes it when present.
func (h *WishlistHandler) Toggle(c *gin.Context) {
	propertyID, err := primitive.ObjectIDFromHex(c.Param("propertyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	user := middleware.CurrentUser(c)
	added, err := h.userService.ToggleWishlist(c.Request.Context(), user.ID, propertyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// Re-resolve so the response carries the post-toggle membership list.
	updated, err := h.userService.FindByID(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	message := "Property removed from wishlist"
	if added {
		message = "Property added to wishlist"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "added": added, "wishlist": updated.Wishlist})
}
