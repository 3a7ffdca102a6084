package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rentcontroldept/rcd-api/models"
)

const officerCollectionName = "officers"

// OfficerDatabase contains the methods to use with the officer collection
type OfficerDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.RCDOfficer, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.RCDOfficer, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
}

type officerDatabase struct {
	db DatabaseHelper
}

// NewOfficerDatabase initializes a new instance of officer database with the provided db connection
func NewOfficerDatabase(db DatabaseHelper) OfficerDatabase {
	return &officerDatabase{
		db: db,
	}
}

func (o *officerDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.RCDOfficer, error) {
	officer := &models.RCDOfficer{}
	err := o.db.Collection(officerCollectionName).FindOne(ctx, filter, opts...).Decode(&officer)
	if err != nil {
		return nil, err
	}
	return officer, nil
}

func (o *officerDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.RCDOfficer, error) {
	var officers []models.RCDOfficer
	curr, err := o.db.Collection(officerCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &officers)
	if err != nil {
		return nil, err
	}
	return officers, nil
}

func (o *officerDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return o.db.Collection(officerCollectionName).InsertOne(ctx, document, opts...)
}

func (o *officerDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return o.db.Collection(officerCollectionName).UpdateOne(ctx, filter, update, opts...)
}
