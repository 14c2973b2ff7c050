package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dwellhub/backend/internal/auth"
	"dwellhub/backend/internal/db"
	"dwellhub/backend/internal/models"
)

// IUserService defines the interface for user-related operations.
// This allows for easier mocking in tests.
type IUserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindOrCreateGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates map[string]interface{}) (*models.User, error)
	UpgradeToAgent(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	ToggleWishlist(ctx context.Context, userID, propertyID primitive.ObjectID) (added bool, err error)
	GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Property, error)
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// Register creates a new account with a bcrypt-hashed password.
// The email is lowercased before storage and must not already be taken.
func (s *userService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	collection := s.db.Collection(usersCollection)
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Avatar:       models.DefaultAvatarURL,
		Role:         models.RoleUser,
		Wishlist:     []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = collection.InsertOne(ctx, user)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to insert user %s: %w", email, err)
	}
	return user, nil
}

// Authenticate resolves a user by email and verifies the password.
// Returns ErrInvalidCredentials on unknown email or mismatch so callers
// cannot distinguish the two.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindOrCreateGoogleUser resolves a federated login. Matches by googleId
// first, then by email (linking the googleId to an existing account), and
// creates a passwordless account when neither matches.
func (s *userService) FindOrCreateGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*models.User, error) {
	collection := s.db.Collection(usersCollection)
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := collection.FindOne(ctx, bson.M{"googleId": googleID}).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error finding user by googleId: %w", err)
	}

	// No account with this googleId; link it to an existing email account.
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = collection.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"googleId": googleID, "updatedAt": time.Now().UTC()}},
		opts,
	).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error linking googleId for %s: %w", email, err)
	}

	if avatar == "" {
		avatar = models.DefaultAvatarURL
	}
	now := time.Now().UTC()
	newUser := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		GoogleID:  googleID,
		Avatar:    avatar,
		Role:      models.RoleUser,
		Wishlist:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = collection.InsertOne(ctx, newUser)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// Lost a race with a concurrent first login; re-resolve.
			findErr := collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
			if findErr == nil {
				return &user, nil
			}
			return nil, fmt.Errorf("duplicate on google signup for %s but re-fetch failed: %w", email, findErr)
		}
		return nil, fmt.Errorf("failed to insert google user %s: %w", email, err)
	}
	return newUser, nil
}

// FindByID fetches a user by its ObjectID.
func (s *userService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID.Hex(), err)
	}
	return &user, nil
}

// FindByEmail fetches a user by email (lowercased before lookup).
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	return &user, nil
}

// UpdateProfile updates mutable profile fields for a user.
// Only name, email, password and avatar are accepted; a password value is
// hashed before storage and an email value is lowercased.
func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates map[string]interface{}) (*models.User, error) {
	allowed := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "avatar":
			allowed[key] = value
		case "email":
			str, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: email must be a string", ErrInvalidInput)
			}
			allowed["email"] = strings.ToLower(strings.TrimSpace(str))
		case "password":
			str, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: password must be a string", ErrInvalidInput)
			}
			hash, err := auth.HashPassword(str)
			if err != nil {
				if errors.Is(err, auth.ErrPasswordTooLong) {
					return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
				}
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
			allowed["password"] = hash
		default:
			return nil, fmt.Errorf("%w: field '%s' cannot be updated via UpdateProfile", ErrInvalidInput, key)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no valid fields provided for update", ErrInvalidInput)
	}
	allowed["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err := s.db.Collection(usersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": allowed}, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to update profile for user %s: %w", userID.Hex(), err)
	}
	return &updated, nil
}

// UpgradeToAgent promotes a regular user to the agent role. Agents and
// admins are left untouched and returned as-is.
func (s *userService) UpgradeToAgent(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err := s.db.Collection(usersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "role": models.RoleUser},
		bson.M{"$set": bson.M{"role": models.RoleAgent, "updatedAt": time.Now().UTC()}},
		opts,
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either missing or already agent/admin; disambiguate.
			user, findErr := s.FindByID(ctx, userID)
			if findErr != nil {
				return nil, findErr
			}
			return user, nil
		}
		return nil, fmt.Errorf("failed to upgrade user %s to agent: %w", userID.Hex(), err)
	}
	return &updated, nil
}

// ToggleWishlist adds the property to the user's wishlist if absent, or
// removes it if present. Both the wishlist membership and the property's
// wishlistCount counter are updated with single atomic operations.
func (s *userService) ToggleWishlist(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	users := s.db.Collection(usersCollection)
	properties := s.db.Collection(propertiesCollection)

	// The property must exist before touching any wishlist.
	count, err := properties.CountDocuments(ctx, bson.M{"_id": propertyID})
	if err != nil {
		return false, fmt.Errorf("error checking property %s: %w", propertyID.Hex(), err)
	}
	if count == 0 {
		return false, ErrNotFound
	}

	now := time.Now().UTC()

	// Try to remove first: matches only when the id is already wishlisted,
	// so the pair of updates stays race-free without a transaction.
	res, err := users.UpdateOne(ctx,
		bson.M{"_id": userID, "wishlist": propertyID},
		bson.M{"$pull": bson.M{"wishlist": propertyID}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return false, fmt.Errorf("error removing property %s from wishlist: %w", propertyID.Hex(), err)
	}
	if res.MatchedCount > 0 {
		_, err = properties.UpdateOne(ctx, bson.M{"_id": propertyID},
			bson.M{"$inc": bson.M{"stats.wishlistCount": -1}})
		if err != nil {
			return false, fmt.Errorf("error decrementing wishlist count for %s: %w", propertyID.Hex(), err)
		}
		return false, nil
	}

	res, err = users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"wishlist": propertyID}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return false, fmt.Errorf("error adding property %s to wishlist: %w", propertyID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	_, err = properties.UpdateOne(ctx, bson.M{"_id": propertyID},
		bson.M{"$inc": bson.M{"stats.wishlistCount": 1}})
	if err != nil {
		return false, fmt.Errorf("error incrementing wishlist count for %s: %w", propertyID.Hex(), err)
	}
	return true, nil
}

// GetWishlist resolves the user's wishlist ids into property documents.
// Properties deleted since being wishlisted are silently absent.
func (s *userService) GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Property, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Wishlist) == 0 {
		return []models.Property{}, nil
	}

	cursor, err := s.db.Collection(propertiesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": user.Wishlist}})
	if err != nil {
		return nil, fmt.Errorf("error fetching wishlist properties for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	results := []models.Property{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding wishlist properties: %w", err)
	}
	return results, nil
}
