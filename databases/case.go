package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rentcontroldept/rcd-api/models"
)

const caseCollectionName = "cases"

// CaseDatabase contains the methods to use with the case collection
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error) {
	rdCase := &models.Case{}
	err := c.db.Collection(caseCollectionName).FindOne(ctx, filter, opts...).Decode(&rdCase)
	if err != nil {
		return nil, err
	}
	return rdCase, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	var cases []models.Case
	curr, err := c.db.Collection(caseCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseCollectionName).CountDocuments(ctx, filter, opts...)
}

func (c *caseDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return c.db.Collection(caseCollectionName).InsertOne(ctx, document, opts...)
}

func (c *caseDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return c.db.Collection(caseCollectionName).UpdateOne(ctx, filter, update, opts...)
}
