package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterCollectionName = "counters"

// CounterDatabase hands out monotonically increasing sequence numbers per
// numbering bucket (prefix/year/month). The increment is a single
// FindOneAndUpdate with $inc and upsert, so two concurrent allocations in
// the same bucket can never observe the same sequence.
type CounterDatabase interface {
	NextSequence(ctx context.Context, key string) (int64, error)
}

// CounterDocument is one numbering bucket and its last issued sequence
type CounterDocument struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

type counterDatabase struct {
	db DatabaseHelper
}

// NewCounterDatabase initializes a new instance of counter database with the provided db connection
func NewCounterDatabase(db DatabaseHelper) CounterDatabase {
	return &counterDatabase{
		db: db,
	}
}

func (c *counterDatabase) NextSequence(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc CounterDocument
	err := c.db.Collection(counterCollectionName).FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
