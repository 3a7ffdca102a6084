package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/databases/mocks"
)

func TestPropertyDatabase_ExistsMalformedID(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}

	propertyDba := databases.NewPropertyDatabase(dbHelper)

	// a malformed hex id short-circuits without touching the collection
	exists, err := propertyDba.Exists(context.Background(), "not-a-hex-id")
	assert.NoError(t, err)
	assert.False(t, exists)

	dbHelper.AssertNotCalled(t, "Collection", "properties")
}

func TestPropertyDatabase_Exists(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("CountDocuments", mock.Anything, mock.Anything).
		Return(int64(1), nil).Once()
	collectionHelper.
		On("CountDocuments", mock.Anything, mock.Anything).
		Return(int64(0), nil).Once()

	dbHelper.On("Collection", "properties").Return(collectionHelper)

	propertyDba := databases.NewPropertyDatabase(dbHelper)

	exists, err := propertyDba.Exists(context.Background(), "608cafe595eb9dc05379b7f4")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = propertyDba.Exists(context.Background(), "608cafe595eb9dc05379b7f4")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestTenancyDatabase_ExistsError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("CountDocuments", mock.Anything, mock.Anything).
		Return(int64(0), errors.New("mocked-error"))

	dbHelper.On("Collection", "tenancies").Return(collectionHelper)

	tenancyDba := databases.NewTenancyDatabase(dbHelper)

	exists, err := tenancyDba.Exists(context.Background(), "608cafe595eb9dc05379b7f4")
	assert.False(t, exists)
	assert.EqualError(t, err, "mocked-error")
}
