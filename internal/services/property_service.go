package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dwellhub/backend/internal/db"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/utils"
)

// DefaultPageSize is the number of listings per search page when the
// client does not ask for a different limit.
const DefaultPageSize = 12

const propertiesCollection = "properties"

// Field-value bounds shared by Create and Update.
const (
	maxTitleLength       = 100
	maxDescriptionLength = 5000
)

// asNumber widens an update value to float64 so numeric bounds can be
// checked regardless of how the caller decoded the payload.
func asNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// SearchParams carries the public listing query filters.
type SearchParams struct {
	Search       string
	City         string
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	Bedrooms     *int
	Bathrooms    *int
	Sort         string
	Page         int
	Limit        int
}

// SearchResult is a page of approved listings plus pagination metadata.
type SearchResult struct {
	Properties []models.Property `json:"properties"`
	Page       int               `json:"page"`
	Pages      int               `json:"pages"`
	Total      int64             `json:"total"`
}

// IPropertyService defines the interface for property-related operations.
type IPropertyService interface {
	Create(ctx context.Context, agentID primitive.ObjectID, input *models.Property) (*models.Property, error)
	FindBySlugOrID(ctx context.Context, idOrSlug string) (*models.Property, error)
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	Update(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool, updates map[string]interface{}) (*models.Property, error)
	Delete(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) error
	Publish(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) error
	Stats(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) (*models.PropertyStats, error)
	FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Property, error)
	AddImages(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool, urls []string) error
}

// propertyService implements IPropertyService.
type propertyService struct {
	db *mongo.Database
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(db *mongo.Database) IPropertyService {
	return &propertyService{db: db}
}

// Create inserts a new listing for the given agent. The approval status is
// always pending regardless of what the caller supplies, the slug is derived
// from the title, and the cover image defaults to the first image. Slug
// collisions (same title in the same millisecond) are resolved by retrying
// the insert with a fresh slug.
func (s *propertyService) Create(ctx context.Context, agentID primitive.ObjectID, input *models.Property) (*models.Property, error) {
	if input.Title == "" || len(input.Title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLength)
	}
	if len(input.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	if input.Price < 0 || input.Bedrooms < 0 || input.Bathrooms < 0 || input.AreaSqft < 0 {
		return nil, fmt.Errorf("%w: price, bedrooms, bathrooms and areaSqft must be non-negative", ErrInvalidInput)
	}
	if !models.ValidPropertyType(input.PropertyType) {
		return nil, fmt.Errorf("%w: unknown property type %q", ErrInvalidInput, input.PropertyType)
	}

	collection := s.db.Collection(propertiesCollection)
	now := time.Now().UTC()

	var property *models.Property
	operation := func() error {
		p := *input
		p.ID = primitive.NewObjectID()
		p.Slug = utils.MakeSlug(p.Title)
		p.AgentID = agentID
		p.ApprovalStatus = models.ApprovalPending
		p.Stats = models.PropertyStats{}
		if p.Amenities == nil {
			p.Amenities = []string{}
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		if p.CoverImage == "" && len(p.Images) > 0 {
			p.CoverImage = p.Images[0]
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		property = &p
		_, insertErr := collection.InsertOne(ctx, property)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert listing for agent %s after multiple retries: %w", agentID.Hex(), err)
	}
	return property, nil
}

// FindBySlugOrID resolves a listing by its slug, falling back to an ObjectID
// hex when the slug does not match. The view counter is incremented
// atomically as part of the lookup.
func (s *propertyService) FindBySlugOrID(ctx context.Context, idOrSlug string) (*models.Property, error) {
	collection := s.db.Collection(propertiesCollection)
	update := bson.M{"$inc": bson.M{"stats.views": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var property models.Property
	err := collection.FindOneAndUpdate(ctx, bson.M{"slug": idOrSlug}, update, opts).Decode(&property)
	if err == nil {
		return &property, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error finding listing by slug %q: %w", idOrSlug, err)
	}

	objID, parseErr := primitive.ObjectIDFromHex(idOrSlug)
	if parseErr != nil {
		return nil, ErrNotFound
	}
	err = collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding listing by ID %s: %w", objID.Hex(), err)
	}
	return &property, nil
}

// buildSearchFilter translates search params into a bson filter over
// approved listings only.
func buildSearchFilter(params SearchParams) bson.M {
	filter := bson.M{"approvalStatus": models.ApprovalApproved}

	if params.Search != "" {
		// Quote the input so metacharacters like "(" match literally
		// instead of erroring inside Mongo.
		regex := primitive.Regex{Pattern: regexp.QuoteMeta(params.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": regex},
			bson.M{"description": regex},
			bson.M{"location.city": regex},
			bson.M{"location.state": regex},
		}
	}
	if params.City != "" {
		filter["location.city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(params.City) + "$", Options: "i"}
	}
	if params.PropertyType != "" {
		filter["propertyType"] = params.PropertyType
	}
	if params.MinPrice != nil || params.MaxPrice != nil {
		price := bson.M{}
		if params.MinPrice != nil {
			price["$gte"] = *params.MinPrice
		}
		if params.MaxPrice != nil {
			price["$lte"] = *params.MaxPrice
		}
		filter["price"] = price
	}
	if params.Bedrooms != nil {
		filter["bedrooms"] = bson.M{"$gte": *params.Bedrooms}
	}
	if params.Bathrooms != nil {
		filter["bathrooms"] = bson.M{"$gte": *params.Bathrooms}
	}
	return filter
}

// searchSort maps the public sort keys to Mongo sort documents. The _id
// tiebreak keeps page boundaries stable when many listings share a value.
func searchSort(sortBy string) bson.D {
	switch sortBy {
	case "price_asc":
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case "price_desc":
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}
	case "oldest":
		return bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// Search runs the public listing query: approved listings only, filtered and
// sorted per params, paginated with a total count.
func (s *propertyService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	collection := s.db.Collection(propertiesCollection)

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = DefaultPageSize
	}

	filter := buildSearchFilter(params)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	opts := options.Find().
		SetSort(searchSort(params.Sort)).
		SetSkip(int64((params.Page - 1) * params.Limit)).
		SetLimit(int64(params.Limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute listing search query: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Property{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode listing search results: %w", err)
	}

	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return &SearchResult{
		Properties: results,
		Page:       params.Page,
		Pages:      pages,
		Total:      total,
	}, nil
}

// ownershipFilter restricts a write to the owning agent unless the caller
// is an admin.
func ownershipFilter(propertyID, callerID primitive.ObjectID, isAdmin bool) bson.M {
	filter := bson.M{"_id": propertyID}
	if !isAdmin {
		filter["agentId"] = callerID
	}
	return filter
}

// explainWriteMiss disambiguates a zero-match write into not-found vs
// forbidden.
func (s *propertyService) explainWriteMiss(ctx context.Context, propertyID primitive.ObjectID) error {
	count, err := s.db.Collection(propertiesCollection).CountDocuments(ctx, bson.M{"_id": propertyID})
	if err != nil {
		return fmt.Errorf("error checking listing %s: %w", propertyID.Hex(), err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrForbidden
}

// Update applies allow-listed changes to a listing owned by the caller
// (admins may edit any listing). Slug, agent, approval status and counters
// are never updatable here, and values are held to the same bounds as
// Create. Editing does not reset the approval status.
func (s *propertyService) Update(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool, updates map[string]interface{}) (*models.Property, error) {
	allowed := bson.M{}
	for key, value := range updates {
		switch key {
		case "title":
			str, _ := value.(string)
			if str == "" || len(str) > maxTitleLength {
				return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLength)
			}
			allowed[key] = str
		case "description":
			str, _ := value.(string)
			if len(str) > maxDescriptionLength {
				return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
			}
			allowed[key] = str
		case "price", "bedrooms", "bathrooms", "areaSqft":
			n, ok := asNumber(value)
			if !ok || n < 0 {
				return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidInput, key)
			}
			allowed[key] = value
		case "location", "amenities", "images", "coverImage":
			allowed[key] = value
		case "propertyType":
			str, _ := value.(string)
			if !models.ValidPropertyType(models.PropertyType(str)) {
				return nil, fmt.Errorf("%w: unknown property type %q", ErrInvalidInput, str)
			}
			allowed[key] = str
		default:
			return nil, fmt.Errorf("%w: field '%s' cannot be updated via Update", ErrInvalidInput, key)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no valid fields provided for update", ErrInvalidInput)
	}
	allowed["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Property
	err := s.db.Collection(propertiesCollection).
		FindOneAndUpdate(ctx, ownershipFilter(propertyID, callerID, isAdmin), bson.M{"$set": allowed}, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.explainWriteMiss(ctx, propertyID)
		}
		return nil, fmt.Errorf("failed to update listing %s: %w", propertyID.Hex(), err)
	}
	return &updated, nil
}

// Delete removes a listing permanently. Owner or admin only.
func (s *propertyService) Delete(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) error {
	res, err := s.db.Collection(propertiesCollection).
		DeleteOne(ctx, ownershipFilter(propertyID, callerID, isAdmin))
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", propertyID.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return s.explainWriteMiss(ctx, propertyID)
	}
	return nil
}

// Publish resubmits a rejected listing for moderation. Listings already
// pending or approved are left untouched; the operation succeeds only on a
// rejected listing owned by the caller (or with admin rights).
func (s *propertyService) Publish(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) error {
	filter := ownershipFilter(propertyID, callerID, isAdmin)
	filter["approvalStatus"] = models.ApprovalRejected

	update := bson.M{"$set": bson.M{
		"approvalStatus": models.ApprovalPending,
		"updatedAt":      time.Now().UTC(),
	}}

	res, err := s.db.Collection(propertiesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to resubmit listing %s: %w", propertyID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		// Not rejected, not owned, or missing; explain which.
		var property models.Property
		checkErr := s.db.Collection(propertiesCollection).
			FindOne(ctx, bson.M{"_id": propertyID}).Decode(&property)
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if checkErr != nil {
			return fmt.Errorf("error checking listing %s: %w", propertyID.Hex(), checkErr)
		}
		if !isAdmin && property.AgentID != callerID {
			return ErrForbidden
		}
		return fmt.Errorf("%w: listing is %s, only rejected listings can be resubmitted",
			ErrInvalidInput, property.ApprovalStatus)
	}
	return nil
}

// Stats returns the view/inquiry/wishlist counters for a listing. Owner or
// admin only.
func (s *propertyService) Stats(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool) (*models.PropertyStats, error) {
	var property models.Property
	err := s.db.Collection(propertiesCollection).
		FindOne(ctx, bson.M{"_id": propertyID}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding listing %s: %w", propertyID.Hex(), err)
	}
	if !isAdmin && property.AgentID != callerID {
		return nil, ErrForbidden
	}
	return &property.Stats, nil
}

// FindByAgent returns all of an agent's listings regardless of approval
// status, newest first.
func (s *propertyService) FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.Property, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.db.Collection(propertiesCollection).Find(ctx, bson.M{"agentId": agentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings for agent %s: %w", agentID.Hex(), err)
	}
	defer cursor.Close(ctx)

	results := []models.Property{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode agent listings: %w", err)
	}
	return results, nil
}

// AddImages appends uploaded image URLs to a listing, setting the cover
// image if the listing has none yet. Owner or admin only.
func (s *propertyService) AddImages(ctx context.Context, propertyID, callerID primitive.ObjectID, isAdmin bool, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("%w: no image URLs provided", ErrInvalidInput)
	}
	collection := s.db.Collection(propertiesCollection)

	res, err := collection.UpdateOne(ctx,
		ownershipFilter(propertyID, callerID, isAdmin),
		bson.M{
			"$addToSet": bson.M{"images": bson.M{"$each": urls}},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add images to listing %s: %w", propertyID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return s.explainWriteMiss(ctx, propertyID)
	}

	// Backfill the cover from the first image when it is still unset.
	_, err = collection.UpdateOne(ctx,
		bson.M{"_id": propertyID, "coverImage": ""},
		bson.M{"$set": bson.M{"coverImage": urls[0]}},
	)
	if err != nil {
		return fmt.Errorf("failed to set cover image for listing %s: %w", propertyID.Hex(), err)
	}
	return nil
}
