package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// RCDOfficer holds the structure for the officers collection in mongo
type RCDOfficer struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details RCDOfficerDetails  `json:"officer" bson:"officer"`
	Version int32              `json:"__v" bson:"__v"`
}

// RCDOfficerDetails holds the structure for the inner officer details
type RCDOfficerDetails struct {
	// UserID is the officer's login identity; the mongo _id is the internal
	// id stored on cases and hearings
	UserID      string             `json:"userID" bson:"userID"`
	Name        string             `json:"name" bson:"name"`
	Email       string             `json:"email" bson:"email"`
	BadgeNumber string             `json:"badgeNumber,omitempty" bson:"badgeNumber,omitempty"`
	Department  string             `json:"department,omitempty" bson:"department,omitempty"`
	Active      bool               `json:"active" bson:"active"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
