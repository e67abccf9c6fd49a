package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MemberRoleCaregiver        = "caregiver"
	MemberRoleFamily           = "family"
	MemberRoleEmergencyContact = "emergency_contact"
)

// User is a monitored subject or a care-circle member. The pipeline only
// reads identity and contact points; profile management lives elsewhere.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	Email     string             `json:"email" bson:"email"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`

	DeviceToken string `json:"-" bson:"deviceToken,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CircleMember ties a recipient to a monitored subject's care circle.
type CircleMember struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SubjectID string             `json:"subjectId" bson:"subjectId"`
	UserID    string             `json:"userId" bson:"userId"`
	Role      string             `json:"role" bson:"role"`
	Status    string             `json:"status" bson:"status"` // active, invited, removed
	JoinedAt  time.Time          `json:"joinedAt" bson:"joinedAt"`
}
