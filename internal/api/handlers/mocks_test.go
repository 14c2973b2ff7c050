package handlers_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dwellhub/backend/internal/auth"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
)

// --- Mocks ---

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindOrCreateGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*models.User, error) {
	args := m.Called(ctx, googleID, email, name, avatar)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates map[string]interface{}) (*models.User, error) {
	args := m.Called(ctx, userID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpgradeToAgent(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ToggleWishlist(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, userID, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Property, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

// MockPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Create(ctx context.Context, agentID primitive.ObjectID, input *models.Property) (*models.Property, error) {
	args := m.Called(ctx, agentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) FindBySlugOrID(ctx context.Context, idOrSlug string) (*models.Property, error) {
	args := m.Called(ctx, idOrSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Search(ctx context.Context, params services.SearchParams) (*services.SearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SearchResult), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool, updates map[string]interface{}) (*models.Property, error) {
	args := m.Called(ctx, propertyID, callerID, isAdmin, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Delete(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) error {
	args := m.Called(ctx, propertyID, callerID, isAdmin)
	return args.Error(0)
}

func (m *MockPropertyService) Publish(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) error {
	args := m.Called(ctx, propertyID, callerID, isAdmin)
	return args.Error(0)
}

func (m *MockPropertyService) Stats(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) (*models.PropertyStats, error) {
	args := m.Called(ctx, propertyID, callerID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyStats), args.Error(1)
}

func (m *MockPropertyService) FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Property, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) AddImages(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool, urls []string) error {
	args := m.Called(ctx, propertyID, callerID, isAdmin, urls)
	return args.Error(0)
}

// MockInquiryService
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) Create(ctx context.Context, userID primitive.ObjectID, propertyID primitive.ObjectID, name, email, phone, message string) (*models.Inquiry, *models.Property, error) {
	args := m.Called(ctx, userID, propertyID, name, email, phone, message)
	var inquiry *models.Inquiry
	var property *models.Property
	if args.Get(0) != nil {
		inquiry = args.Get(0).(*models.Inquiry)
	}
	if args.Get(1) != nil {
		property = args.Get(1).(*models.Property)
	}
	return inquiry, property, args.Error(2)
}

func (m *MockInquiryService) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Inquiry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Inquiry, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) UpdateStatus(ctx context.Context, inquiryID, callerID primitive.ObjectID, isAdmin bool, status models.InquiryStatus) (*models.Inquiry, error) {
	args := m.Called(ctx, inquiryID, callerID, isAdmin, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

// MockGoogleVerifier
type MockGoogleVerifier struct {
	mock.Mock
}

func (m *MockGoogleVerifier) Verify(ctx context.Context, credential string) (*auth.GoogleClaims, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.GoogleClaims), args.Error(1)
}

// MockMediaStorage
type MockMediaStorage struct {
	mock.Mock
}

func (m *MockMediaStorage) Upload(ctx context.Context, body io.Reader, filename, contentType string, size int64) (string, error) {
	args := m.Called(ctx, body, filename, contentType, size)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStorage) Delete(ctx context.Context, publicURL string) error {
	args := m.Called(ctx, publicURL)
	return args.Error(0)
}
