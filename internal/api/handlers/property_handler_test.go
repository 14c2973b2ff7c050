package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"dwellhub/backend/internal/api/handlers"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
)

func setupPropertyRouter(propSvc *MockPropertyService, authedUser *models.User) *gin.Engine {
	h := handlers.NewPropertyHandler(testConfig(), propSvc, nil, zap.NewNop())
	r := gin.New()
	r.GET("/properties", h.Search)
	r.GET("/properties/:idOrSlug", h.Get)
	authed := r.Group("/", asUser(authedUser))
	authed.POST("/properties", h.Create)
	authed.PUT("/properties/id/:id", h.Update)
	authed.DELETE("/properties/id/:id", h.Delete)
	authed.POST("/properties/id/:id/publish", h.Publish)
	authed.GET("/properties/id/:id/stats", h.Stats)
	authed.GET("/my-listings", h.MyListings)
	return r
}

func TestPropertyHandler_SearchParamParsing(t *testing.T) {
	propSvc := new(MockPropertyService)
	var captured services.SearchParams
	propSvc.On("Search", mock.Anything, mock.MatchedBy(func(p services.SearchParams) bool {
		captured = p
		return true
	})).Return(&services.SearchResult{Properties: []models.Property{}}, nil)
	r := setupPropertyRouter(propSvc, nil)

	w := performJSON(r, http.MethodGet,
		"/properties?search=villa&type=Villa&minPrice=100000&maxPrice=500000&bedrooms=3&sort=price_asc&page=2&limit=24", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "villa", captured.Search)
	assert.Equal(t, "Villa", captured.PropertyType, "type is an alias for propertyType")
	assert.Equal(t, 100000.0, *captured.MinPrice)
	assert.Equal(t, 500000.0, *captured.MaxPrice)
	assert.Equal(t, 3, *captured.Bedrooms)
	assert.Equal(t, "price_asc", captured.Sort)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 24, captured.Limit)
}

func TestPropertyHandler_SearchDefaults(t *testing.T) {
	propSvc := new(MockPropertyService)
	var captured services.SearchParams
	propSvc.On("Search", mock.Anything, mock.MatchedBy(func(p services.SearchParams) bool {
		captured = p
		return true
	})).Return(&services.SearchResult{Properties: []models.Property{}}, nil)
	r := setupPropertyRouter(propSvc, nil)

	w := performJSON(r, http.MethodGet, "/properties?minPrice=abc&page=-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, captured.MinPrice, "unparseable numbers are ignored")
	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, services.DefaultPageSize, captured.Limit)
}

func TestPropertyHandler_Get(t *testing.T) {
	propSvc := new(MockPropertyService)
	property := &models.Property{ID: primitive.NewObjectID(), Title: "Found", Slug: "found-1"}
	propSvc.On("FindBySlugOrID", mock.Anything, "found-1").Return(property, nil)
	propSvc.On("FindBySlugOrID", mock.Anything, "missing").Return(nil, services.ErrNotFound)
	r := setupPropertyRouter(propSvc, nil)

	w := performJSON(r, http.MethodGet, "/properties/found-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Found")

	w = performJSON(r, http.MethodGet, "/properties/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPropertyHandler_Create(t *testing.T) {
	agent := testUser(models.RoleAgent)

	t.Run("Success", func(t *testing.T) {
		propSvc := new(MockPropertyService)
		created := &models.Property{ID: primitive.NewObjectID(), Title: "New Place", ApprovalStatus: models.ApprovalPending}
		propSvc.On("Create", mock.Anything, agent.ID, mock.MatchedBy(func(p *models.Property) bool {
			return p.Title == "New Place" && p.PropertyType == models.TypeHouse
		})).Return(created, nil)
		r := setupPropertyRouter(propSvc, agent)

		w := performJSON(r, http.MethodPost, "/properties", jsonBody(t, gin.H{
			"title": "New Place", "price": 100000, "propertyType": "House",
		}))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"pending"`)
		propSvc.AssertExpectations(t)
	})

	t.Run("MissingTitle", func(t *testing.T) {
		r := setupPropertyRouter(new(MockPropertyService), agent)
		w := performJSON(r, http.MethodPost, "/properties", jsonBody(t, gin.H{
			"price": 100000, "propertyType": "House",
		}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPropertyHandler_Update(t *testing.T) {
	agent := testUser(models.RoleAgent)
	propertyID := primitive.NewObjectID()

	t.Run("Success", func(t *testing.T) {
		propSvc := new(MockPropertyService)
		updated := &models.Property{ID: propertyID, Title: "Renamed"}
		propSvc.On("Update", mock.Anything, propertyID, agent.ID, false,
			map[string]interface{}{"title": "Renamed"}).Return(updated, nil)
		r := setupPropertyRouter(propSvc, agent)

		w := performJSON(r, http.MethodPut, "/properties/id/"+propertyID.Hex(),
			jsonBody(t, gin.H{"title": "Renamed"}))
		assert.Equal(t, http.StatusOK, w.Code)
		propSvc.AssertExpectations(t)
	})

	t.Run("UnknownFieldRejected", func(t *testing.T) {
		r := setupPropertyRouter(new(MockPropertyService), agent)
		w := performJSON(r, http.MethodPut, "/properties/id/"+propertyID.Hex(),
			jsonBody(t, gin.H{"approvalStatus": "approved"}))
		assert.Equal(t, http.StatusBadRequest, w.Code, "strict decoding rejects unlisted fields")
	})

	t.Run("BadID", func(t *testing.T) {
		r := setupPropertyRouter(new(MockPropertyService), agent)
		w := performJSON(r, http.MethodPut, "/properties/id/not-hex", jsonBody(t, gin.H{"title": "X"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("BadValueRejected", func(t *testing.T) {
		propSvc := new(MockPropertyService)
		propSvc.On("Update", mock.Anything, propertyID, agent.ID, false,
			map[string]interface{}{"price": -5.0}).
			Return(nil, fmt.Errorf("%w: price must be a non-negative number", services.ErrInvalidInput))
		r := setupPropertyRouter(propSvc, agent)

		w := performJSON(r, http.MethodPut, "/properties/id/"+propertyID.Hex(),
			jsonBody(t, gin.H{"price": -5}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		propSvc.AssertExpectations(t)
	})

	t.Run("NotOwner", func(t *testing.T) {
		propSvc := new(MockPropertyService)
		propSvc.On("Update", mock.Anything, propertyID, agent.ID, false, mock.Anything).
			Return(nil, services.ErrForbidden)
		r := setupPropertyRouter(propSvc, agent)

		w := performJSON(r, http.MethodPut, "/properties/id/"+propertyID.Hex(),
			jsonBody(t, gin.H{"title": "Hijack"}))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("AdminFlagPassed", func(t *testing.T) {
		admin := testUser(models.RoleAdmin)
		propSvc := new(MockPropertyService)
		propSvc.On("Update", mock.Anything, propertyID, admin.ID, true, mock.Anything).
			Return(&models.Property{ID: propertyID}, nil)
		r := setupPropertyRouter(propSvc, admin)

		w := performJSON(r, http.MethodPut, "/properties/id/"+propertyID.Hex(),
			jsonBody(t, gin.H{"title": "Admin Edit"}))
		assert.Equal(t, http.StatusOK, w.Code)
		propSvc.AssertExpectations(t)
	})
}

func TestPropertyHandler_DeletePublishStats(t *testing.T) {
	agent := testUser(models.RoleAgent)
	propertyID := primitive.NewObjectID()

	propSvc := new(MockPropertyService)
	propSvc.On("Delete", mock.Anything, propertyID, agent.ID, false).Return(nil)
	propSvc.On("Publish", mock.Anything, propertyID, agent.ID, false).Return(nil)
	propSvc.On("Stats", mock.Anything, propertyID, agent.ID, false).
		Return(&models.PropertyStats{Views: 7, Inquiries: 2, WishlistCount: 3}, nil)
	r := setupPropertyRouter(propSvc, agent)

	w := performJSON(r, http.MethodDelete, "/properties/id/"+propertyID.Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performJSON(r, http.MethodPost, fmt.Sprintf("/properties/id/%s/publish", propertyID.Hex()), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performJSON(r, http.MethodGet, fmt.Sprintf("/properties/id/%s/stats", propertyID.Hex()), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 7, body["views"])
	propSvc.AssertExpectations(t)
}

func TestPropertyHandler_MyListings(t *testing.T) {
	agent := testUser(models.RoleAgent)
	propSvc := new(MockPropertyService)
	propSvc.On("FindByAgent", mock.Anything, agent.ID).Return([]models.Property{
		{Title: "Mine A", ApprovalStatus: models.ApprovalPending},
		{Title: "Mine B", ApprovalStatus: models.ApprovalApproved},
	}, nil)
	r := setupPropertyRouter(propSvc, agent)

	w := performJSON(r, http.MethodGet, "/my-listings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mine A")
	assert.Contains(t, w.Body.String(), "Mine B")
}
