package databases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/databases/mocks"
	"github.com/rentcontroldept/rcd-api/models"
)

func TestCounterDatabase_NextSequence(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	key := models.CounterKey("RA", 2026, 8)

	seq := int64(0)
	srHelper.On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		// each allocation observes the post-increment value
		seq++
		arg := args.Get(0).(*databases.CounterDocument)
		arg.Seq = seq
	})

	collectionHelper.
		On("FindOneAndUpdate", context.Background(), bson.M{"_id": key}, bson.M{"$inc": bson.M{"seq": 1}}, mock.Anything).
		Return(srHelper)

	dbHelper.On("Collection", "counters").Return(collectionHelper)

	counterDba := databases.NewCounterDatabase(dbHelper)

	first, err := counterDba.NextSequence(context.Background(), key)
	assert.NoError(t, err)
	second, err := counterDba.NextSequence(context.Background(), key)
	assert.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestCounterDatabase_NextSequenceConcurrent(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	// the mock behaves like the store's atomic $inc: every caller observes
	// a distinct post-increment value
	var mu sync.Mutex
	seq := int64(0)
	srHelper.On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		seq++
		arg := args.Get(0).(*databases.CounterDocument)
		arg.Seq = seq
	})

	collectionHelper.
		On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(srHelper)

	dbHelper.On("Collection", "counters").Return(collectionHelper)

	counterDba := databases.NewCounterDatabase(dbHelper)

	const callers = 32
	results := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := counterDba.NextSequence(context.Background(), "RA/2026/08")
			assert.NoError(t, err)
			results <- got
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for got := range results {
		assert.False(t, seen[got], "sequence %d handed out twice", got)
		seen[got] = true
	}
	assert.Len(t, seen, callers)
}

func TestCounterDatabase_NextSequenceError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	collectionHelper.
		On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(srHelper)

	dbHelper.On("Collection", "counters").Return(collectionHelper)

	counterDba := databases.NewCounterDatabase(dbHelper)

	seq, err := counterDba.NextSequence(context.Background(), "RA/2026/08")
	assert.Zero(t, seq)
	assert.EqualError(t, err, "mocked-error")
}
