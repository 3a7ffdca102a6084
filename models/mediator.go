package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Mediator holds the structure for the mediators collection in mongo
type Mediator struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details MediatorDetails    `json:"mediator" bson:"mediator"`
	Version int32              `json:"__v" bson:"__v"`
}

// MediatorDetails holds the structure for the inner mediator details
type MediatorDetails struct {
	UserID         string             `json:"userID" bson:"userID"`
	Name           string             `json:"name" bson:"name"`
	Email          string             `json:"email" bson:"email"`
	Specialization string             `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Active         bool               `json:"active" bson:"active"`
	CreatedAt      primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt      primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
