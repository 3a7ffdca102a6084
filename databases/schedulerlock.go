package databases

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockCollectionName = "scheduler_locks"

// SchedulerLockDatabase provides a best-effort distributed lock so a cron
// job runs on a single instance at a time. A lock is free when its document
// is absent or its expiry has passed.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, name, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, name, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id": name,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)}},
			{"holder": instanceID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"holder":    instanceID,
			"expiresAt": primitive.NewDateTimeFromTime(now.Add(ttl)),
		},
	}

	_, err := s.db.Collection(schedulerLockCollectionName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if IsDuplicateKeyError(err) {
			// another instance holds an unexpired lock
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, name, instanceID string) error {
	filter := bson.M{"_id": name, "holder": instanceID}
	update := bson.M{
		"$set": bson.M{
			"expiresAt": primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	_, err := s.db.Collection(schedulerLockCollectionName).UpdateOne(ctx, filter, update)
	return err
}
