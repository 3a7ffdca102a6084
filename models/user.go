package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the users collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user details
type UserDetails struct {
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"password" bson:"password"` // bcrypt hash
	Role      string             `json:"role" bson:"role"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Active    bool               `json:"active" bson:"active"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Roles
const (
	RoleAdmin      = "admin"
	RoleRCDOfficer = "rcd_officer"
	RoleMediator   = "mediator"
	RoleTenant     = "tenant"
	RoleLandlord   = "landlord"
)

// ValidRole reports whether r is a known role
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleRCDOfficer, RoleMediator, RoleTenant, RoleLandlord:
		return true
	}
	return false
}
