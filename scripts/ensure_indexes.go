package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Creates the indexes the API relies on. The unique indexes are load-bearing:
// case and hearing numbers must never collide, and the hearing slot index is
// the backstop behind the scheduling conflict scan.
// Usage: DB_URI=... DB_NAME=... go run scripts/ensure_indexes.go
func main() {
	uri := os.Getenv("DB_URI")
	name := os.Getenv("DB_NAME")
	if uri == "" || name == "" {
		fmt.Println("DB_URI and DB_NAME must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		fmt.Printf("Error connecting to mongo: %v\n", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	db := client.Database(name)

	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{
			collection: "cases",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "case.caseNumber", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_case_number"),
			},
		},
		{
			collection: "cases",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "case.status", Value: 1}, {Key: "case.priority", Value: 1}},
				Options: options.Index().SetName("case_status_priority"),
			},
		},
		{
			collection: "cases",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "case.assignedOfficerID", Value: 1}},
				Options: options.Index().SetName("case_assigned_officer"),
			},
		},
		{
			collection: "hearings",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "hearing.hearingNumber", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_hearing_number"),
			},
		},
		{
			// rejects an exact double-booking of a live slot that slipped
			// past the availability scan
			collection: "hearings",
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "hearing.presidingOfficerID", Value: 1},
					{Key: "hearing.date", Value: 1},
					{Key: "hearing.startTime", Value: 1},
				},
				Options: options.Index().
					SetUnique(true).
					SetName("uniq_officer_slot").
					SetPartialFilterExpression(bson.M{"hearing.status": "scheduled"}),
			},
		},
		{
			collection: "hearings",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "hearing.caseID", Value: 1}},
				Options: options.Index().SetName("hearing_case"),
			},
		},
		{
			collection: "hearings",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "hearing.date", Value: 1}, {Key: "hearing.startTime", Value: 1}},
				Options: options.Index().SetName("hearing_calendar"),
			},
		},
		{
			collection: "officers",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "officer.userID", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_officer_user"),
			},
		},
		{
			collection: "mediators",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "mediator.userID", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_mediator_user"),
			},
		},
		{
			collection: "users",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "user.email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_user_email"),
			},
		},
	}

	for _, idx := range indexes {
		name, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model)
		if err != nil {
			fmt.Printf("Error creating index on %s: %v\n", idx.collection, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %s\n", idx.collection, name)
	}
	fmt.Println("all indexes in place")
}
