package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role defines the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// DefaultAvatarURL is assigned to accounts registered without an avatar.
const DefaultAvatarURL = "https://res.cloudinary.com/demo/image/upload/v1578587606/placeholder_jwb00i.jpg"

// User represents an account. Emails are stored lowercase and are unique
// among all users. PasswordHash is empty for accounts created through
// federated (Google) login only; such accounts must carry a GoogleID.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id,omitempty"`
	Name         string               `bson:"name" json:"name"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password,omitempty" json:"-"`
	GoogleID     string               `bson:"googleId,omitempty" json:"-"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	Role         Role                 `bson:"role" json:"role"`
	Wishlist     []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// InWishlist reports whether the given property is currently wishlisted.
func (u *User) InWishlist(propertyID primitive.ObjectID) bool {
	for _, id := range u.Wishlist {
		if id == propertyID {
			return true
		}
	}
	return false
}
