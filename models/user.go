package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RoleAttendee  = "attendee"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

type UserSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// Identity is the caller resolved from a bearer credential.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// ObjectID returns the identity's user id as an ObjectID.
func (i Identity) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(i.UserID)
}
