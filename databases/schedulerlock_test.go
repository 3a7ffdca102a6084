package databases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/databases/mocks"
)

func TestSchedulerLockDatabase_TryAcquireLock(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), nil)

	dbHelper.On("Collection", "scheduler_locks").Return(collectionHelper)

	lockDba := databases.NewSchedulerLockDatabase(dbHelper)

	acquired, err := lockDba.TryAcquireLock(context.Background(), "hearing_sweep_job", "instance-1", 10*time.Minute)
	assert.NoError(t, err)
	assert.True(t, acquired)
}

func TestSchedulerLockDatabase_TryAcquireLockHeld(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	// the conditional upsert hits the _id index when another instance holds
	// an unexpired lock
	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	collectionHelper.
		On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), dupErr)

	dbHelper.On("Collection", "scheduler_locks").Return(collectionHelper)

	lockDba := databases.NewSchedulerLockDatabase(dbHelper)

	acquired, err := lockDba.TryAcquireLock(context.Background(), "hearing_sweep_job", "instance-2", 10*time.Minute)
	assert.NoError(t, err)
	assert.False(t, acquired)
}
