package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcontroldept/rcd-api/config"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/databases/mocks"
	"github.com/rentcontroldept/rcd-api/models"
)

func TestNewCaseDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	caseDB := databases.NewCaseDatabase(db)

	assert.NotEmpty(t, caseDB)
}

func TestCaseDatabase_FindOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	oid := primitive.NewObjectID()

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Case)
		(*arg).ID = oid
		(*arg).Details.Status = models.CaseStatusDraft
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "cases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	rdCase, err := caseDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, rdCase)
	assert.EqualError(t, err, "mocked-error")

	rdCase, err = caseDba.FindOne(context.Background(), bson.M{"error": false})

	assert.NoError(t, err)
	assert.Equal(t, oid, rdCase.ID)
	assert.Equal(t, models.CaseStatusDraft, rdCase.Details.Status)
}

func TestCaseDatabase_Find(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	cursorCorrect := &mocks.CursorHelper{}
	cursorCorrect.On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Case)
		(*arg) = []models.Case{{Details: models.CaseDetails{CaseNumber: "RA/2026/08/0001"}}}
	})
	cursorCorrect.On("Close", context.Background()).Return(nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(nil, errors.New("mocked-error"))

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": false}).
		Return(cursorCorrect, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "cases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	cases, err := caseDba.Find(context.Background(), bson.M{"error": true})

	assert.Empty(t, cases)
	assert.EqualError(t, err, "mocked-error")

	cases, err = caseDba.Find(context.Background(), bson.M{"error": false})

	assert.NoError(t, err)
	assert.Len(t, cases, 1)
	assert.Equal(t, "RA/2026/08/0001", cases[0].Details.CaseNumber)
}

func TestCaseDatabase_UpdateOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), bson.M{"matched": true}, mock.Anything).
		Return(int64(1), nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), bson.M{"matched": false}, mock.Anything).
		Return(int64(0), nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "cases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	matched, err := caseDba.UpdateOne(context.Background(), bson.M{"matched": true}, bson.M{"$set": bson.M{}})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	// a filter that matches nothing reports zero without error, the signal
	// the handlers turn into a concurrent-modification conflict
	matched, err = caseDba.UpdateOne(context.Background(), bson.M{"matched": false}, bson.M{"$set": bson.M{}})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), matched)
}
