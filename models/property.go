package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Property is the slice of the properties collection this service reads.
// Listings are owned by the property subsystem; cases only verify existence.
type Property struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details PropertyDetails    `json:"property" bson:"property"`
	Version int32              `json:"__v" bson:"__v"`
}

// PropertyDetails holds the inner property fields this service cares about
type PropertyDetails struct {
	Address    string `json:"address" bson:"address"`
	LandlordID string `json:"landlordID" bson:"landlordID"`
}

// Tenancy is the slice of the tenancies collection this service reads
type Tenancy struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details TenancyDetails     `json:"tenancy" bson:"tenancy"`
	Version int32              `json:"__v" bson:"__v"`
}

// TenancyDetails holds the inner tenancy fields this service cares about
type TenancyDetails struct {
	PropertyID string `json:"propertyID" bson:"propertyID"`
	TenantID   string `json:"tenantID" bson:"tenantID"`
}
