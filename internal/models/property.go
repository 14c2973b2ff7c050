package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApprovalStatus is the moderation state controlling public visibility.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// PropertyType enumerates the supported categories of listed property.
type PropertyType string

const (
	TypeHouse      PropertyType = "House"
	TypeApartment  PropertyType = "Apartment"
	TypeCondo      PropertyType = "Condo"
	TypeVilla      PropertyType = "Villa"
	TypeCommercial PropertyType = "Commercial"
	TypeLand       PropertyType = "Land"
)

// ValidPropertyType reports whether t is one of the known property types.
func ValidPropertyType(t PropertyType) bool {
	switch t {
	case TypeHouse, TypeApartment, TypeCondo, TypeVilla, TypeCommercial, TypeLand:
		return true
	}
	return false
}

// GeoPoint is a GeoJSON point (longitude, latitude).
type GeoPoint struct {
	Type        string    `bson:"type,omitempty" json:"type,omitempty"`
	Coordinates []float64 `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// Location describes where a property is situated.
type Location struct {
	Point            *GeoPoint `bson:"point,omitempty" json:"point,omitempty"`
	FormattedAddress string    `bson:"formattedAddress,omitempty" json:"formattedAddress,omitempty"`
	City             string    `bson:"city,omitempty" json:"city,omitempty"`
	State            string    `bson:"state,omitempty" json:"state,omitempty"`
	Zipcode          string    `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	Country          string    `bson:"country,omitempty" json:"country,omitempty"`
}

// PropertyStats holds per-listing counters. Views increment on every detail
// fetch; inquiries and wishlistCount are maintained atomically by their
// respective flows.
type PropertyStats struct {
	Views         int64 `bson:"views" json:"views"`
	Inquiries     int64 `bson:"inquiries" json:"inquiries"`
	WishlistCount int64 `bson:"wishlistCount" json:"wishlistCount"`
}

// Property represents a real-estate listing. The slug is derived from the
// title at creation time and never recomputed.
type Property struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Slug           string             `bson:"slug" json:"slug"`
	Description    string             `bson:"description" json:"description"`
	Price          float64            `bson:"price" json:"price"`
	Location       Location           `bson:"location" json:"location"`
	Bedrooms       int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms      int                `bson:"bathrooms" json:"bathrooms"`
	AreaSqft       float64            `bson:"areaSqft" json:"areaSqft"`
	PropertyType   PropertyType       `bson:"propertyType" json:"propertyType"`
	Amenities      []string           `bson:"amenities" json:"amenities"`
	Images         []string           `bson:"images" json:"images"`
	CoverImage     string             `bson:"coverImage" json:"coverImage"`
	AgentID        primitive.ObjectID `bson:"agentId" json:"agentId"`
	ApprovalStatus ApprovalStatus     `bson:"approvalStatus" json:"approvalStatus"`
	Stats          PropertyStats      `bson:"stats" json:"stats"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
