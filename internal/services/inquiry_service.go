package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dwellhub/backend/internal/models"
)

const inquiriesCollection = "inquiries"

// IInquiryService defines the interface for inquiry-related operations.
type IInquiryService interface {
	Create(ctx context.Context, userID primitive.ObjectID, propertyID primitive.ObjectID, name, email, phone, message string) (*models.Inquiry, *models.Property, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Inquiry, error)
	FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Inquiry, error)
	UpdateStatus(ctx context.Context, inquiryID, callerID primitive.ObjectID, isAdmin bool, status models.InquiryStatus) (*models.Inquiry, error)
}

// inquiryService implements IInquiryService.
type inquiryService struct {
	db *mongo.Database
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(db *mongo.Database) IInquiryService {
	return &inquiryService{db: db}
}

// Create records an inquiry about a property. The property must exist and
// must not belong to the inquiring user; the owning agent's id is
// denormalized onto the inquiry and the property's inquiry counter is
// incremented. The property is returned alongside so callers can compose a
// notification without a second lookup.
func (s *inquiryService) Create(ctx context.Context, userID primitive.ObjectID, propertyID primitive.ObjectID, name, email, phone, message string) (*models.Inquiry, *models.Property, error) {
	if message == "" {
		return nil, nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	properties := s.db.Collection(propertiesCollection)
	var property models.Property
	err := properties.FindOne(ctx, bson.M{"_id": propertyID}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("error finding listing %s: %w", propertyID.Hex(), err)
	}
	if property.AgentID == userID {
		return nil, nil, ErrOwnProperty
	}

	now := time.Now().UTC()
	inquiry := &models.Inquiry{
		ID:         primitive.NewObjectID(),
		PropertyID: propertyID,
		UserID:     userID,
		AgentID:    property.AgentID,
		Name:       name,
		Email:      email,
		Phone:      phone,
		Message:    message,
		Status:     models.InquiryPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.db.Collection(inquiriesCollection).InsertOne(ctx, inquiry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert inquiry for listing %s: %w", propertyID.Hex(), err)
	}

	_, err = properties.UpdateOne(ctx, bson.M{"_id": propertyID},
		bson.M{"$inc": bson.M{"stats.inquiries": 1}})
	if err != nil {
		return nil, nil, fmt.Errorf("error incrementing inquiry count for %s: %w", propertyID.Hex(), err)
	}
	return inquiry, &property, nil
}

// FindByUser returns inquiries sent by a user, newest first.
func (s *inquiryService) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Inquiry, error) {
	return s.find(ctx, bson.M{"userId": userID})
}

// FindByAgent returns inquiries received by an agent, newest first.
func (s *inquiryService) FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Inquiry, error) {
	return s.find(ctx, bson.M{"agentId": agentID})
}

func (s *inquiryService) find(ctx context.Context, filter bson.M) ([]models.Inquiry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Inquiry{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode inquiries: %w", err)
	}
	return results, nil
}

// UpdateStatus moves an inquiry to a new status. Only the receiving agent
// (or an admin) may update it.
func (s *inquiryService) UpdateStatus(ctx context.Context, inquiryID, callerID primitive.ObjectID, isAdmin bool, status models.InquiryStatus) (*models.Inquiry, error) {
	if !models.ValidInquiryStatus(status) {
		return nil, fmt.Errorf("%w: unknown inquiry status %q", ErrInvalidInput, status)
	}

	filter := bson.M{"_id": inquiryID}
	if !isAdmin {
		filter["agentId"] = callerID
	}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			count, countErr := s.db.Collection(inquiriesCollection).CountDocuments(ctx, bson.M{"_id": inquiryID})
			if countErr != nil {
				return nil, fmt.Errorf("error checking inquiry %s: %w", inquiryID.Hex(), countErr)
			}
			if count == 0 {
				return nil, ErrNotFound
			}
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to update inquiry %s: %w", inquiryID.Hex(), err)
	}
	return &updated, nil
}
