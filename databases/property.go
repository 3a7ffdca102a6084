package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	propertyCollectionName = "properties"
	tenancyCollectionName  = "tenancies"
)

// PropertyDatabase is the narrow collaborator contract the case subsystem
// needs from the property listings subsystem: existence checks only.
type PropertyDatabase interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// TenancyDatabase is the equivalent contract for tenancy agreements
type TenancyDatabase interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type propertyDatabase struct {
	db DatabaseHelper
}

// NewPropertyDatabase initializes a new instance of property database with the provided db connection
func NewPropertyDatabase(db DatabaseHelper) PropertyDatabase {
	return &propertyDatabase{
		db: db,
	}
}

func (p *propertyDatabase) Exists(ctx context.Context, id string) (bool, error) {
	return existsByHexID(ctx, p.db.Collection(propertyCollectionName), id)
}

type tenancyDatabase struct {
	db DatabaseHelper
}

// NewTenancyDatabase initializes a new instance of tenancy database with the provided db connection
func NewTenancyDatabase(db DatabaseHelper) TenancyDatabase {
	return &tenancyDatabase{
		db: db,
	}
}

func (t *tenancyDatabase) Exists(ctx context.Context, id string) (bool, error) {
	return existsByHexID(ctx, t.db.Collection(tenancyCollectionName), id)
}

func existsByHexID(ctx context.Context, coll CollectionHelper, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// a malformed id cannot reference an existing record
		return false, nil
	}
	count, err := coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
