package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"dwellhub/backend/internal/api/middleware"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
	"dwellhub/backend/internal/tasks"
)

// InquiryNotifier enqueues agent notification work. Satisfied by a closure
// over the asynq client in production and by a stub in tests.
type InquiryNotifier func(payload tasks.InquiryNotifyPayload) error

// InquiryHandler handles inquiry endpoints.
type InquiryHandler struct {
	inquiryService services.IInquiryService
	notify         InquiryNotifier
	log            *zap.Logger
}

// NewInquiryHandler creates a new InquiryHandler. notify may be nil when no
// background worker is configured.
func NewInquiryHandler(inquiryService services.IInquiryService, notify InquiryNotifier, logger *zap.Logger) *InquiryHandler {
	return &InquiryHandler{
		inquiryService: inquiryService,
		notify:         notify,
		log:            logger,
	}
}

type createInquiryRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Message    string `json:"message" binding:"required,max=1000"`
}

// Create handles POST /api/inquiries. The notification email is queued
// after the inquiry is stored; a full queue never loses the inquiry itself.
func (h *InquiryHandler) Create(c *gin.Context) {
	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Property, name, valid email and a message up to 1000 characters are required"})
		return
	}

	propertyID, err := primitive.ObjectIDFromHex(req.PropertyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	user := middleware.CurrentUser(c)
	inquiry, property, err := h.inquiryService.Create(c.Request.Context(), user.ID, propertyID,
		req.Name, req.Email, req.Phone, req.Message)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if h.notify != nil {
		if notifyErr := h.notify(tasks.InquiryNotifyPayload{
			AgentID:       inquiry.AgentID.Hex(),
			PropertyTitle: property.Title,
			PropertySlug:  property.Slug,
			FromName:      req.Name,
			FromEmail:     req.Email,
			FromPhone:     req.Phone,
			Message:       req.Message,
		}); notifyErr != nil {
			h.log.Error("failed to enqueue inquiry notification",
				zap.String("inquiry_id", inquiry.ID.Hex()), zap.Error(notifyErr))
		}
	}

	c.JSON(http.StatusCreated, inquiry)
}

// My handles GET /api/inquiries/my.
func (h *InquiryHandler) My(c *gin.Context) {
	user := middleware.CurrentUser(c)
	inquiries, err := h.inquiryService.FindByUser(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

// Received handles GET /api/inquiries/agent.
func (h *InquiryHandler) Received(c *gin.Context) {
	user := middleware.CurrentUser(c)
	inquiries, err := h.inquiryService.FindByAgent(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

type updateInquiryRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /api/inquiries/:id.
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	inquiryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID format"})
		return
	}

	var req updateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	user := middleware.CurrentUser(c)
	updated, err := h.inquiryService.UpdateStatus(c.Request.Context(), inquiryID, user.ID,
		user.Role == models.RoleAdmin, models.InquiryStatus(req.Status))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
