package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InquiryStatus tracks how far an agent has taken an inquiry.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "pending"
	InquiryReviewed  InquiryStatus = "reviewed"
	InquiryResponded InquiryStatus = "responded"
)

// ValidInquiryStatus reports whether s is a known inquiry status.
func ValidInquiryStatus(s InquiryStatus) bool {
	switch s {
	case InquiryPending, InquiryReviewed, InquiryResponded:
		return true
	}
	return false
}

// Inquiry is a buyer's message about a specific property. AgentID is
// denormalized from the property at creation so agents can query their
// inbox without a join.
type Inquiry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	PropertyID primitive.ObjectID `bson:"propertyId" json:"propertyId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	AgentID    primitive.ObjectID `bson:"agentId" json:"agentId"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Message    string             `bson:"message" json:"message"`
	Status     InquiryStatus      `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
