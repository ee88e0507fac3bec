package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	}

	log.Println("EnsureUserIndexes: creating username_unique and email_unique indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Println("EnsureUserIndexes: index error:", err)
		return err
	}
	return nil
}

// EnsureLikeIndexes makes toggling a like safe under concurrent requests:
// a duplicate insert for the same (likedBy, target) pair fails at the
// store instead of creating a second like row. One partial index per
// target kind, since a like references exactly one of video/comment/tweet.
func EnsureLikeIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("likes").Indexes()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "video", Value: 1}},
			Options: options.Index().
				SetName("likedBy_video_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"video": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "comment", Value: 1}},
			Options: options.Index().
				SetName("likedBy_comment_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"comment": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "tweet", Value: 1}},
			Options: options.Index().
				SetName("likedBy_tweet_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"tweet": bson.M{"$exists": true}}),
		},
	}

	log.Println("EnsureLikeIndexes: creating per-target unique indexes")
	_, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Println("EnsureLikeIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureSubscriptionIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("subscriptions").Indexes()

	subscriberChannelIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
		Options: options.Index().SetName("subscriber_channel_unique").SetUnique(true),
	}

	log.Println("EnsureSubscriptionIndexes: creating subscriber_channel_unique index")
	_, err := indexes.CreateOne(ctx, subscriberChannelIndex)
	if err != nil {
		log.Println("EnsureSubscriptionIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureContentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type collectionIndex struct {
		collection string
		model      mongo.IndexModel
	}

	models := []collectionIndex{
		{
			collection: "videos",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("owner_createdAt"),
			},
		},
		{
			collection: "comments",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "video", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("video_createdAt"),
			},
		},
		{
			collection: "tweets",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("owner_createdAt"),
			},
		},
		{
			collection: "playlists",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "owner", Value: 1}},
				Options: options.Index().SetName("owner_index"),
			},
		},
	}

	for _, entry := range models {
		log.Printf("EnsureContentIndexes: creating %s index on %s", *entry.model.Options.Name, entry.collection)
		if _, err := db.Collection(entry.collection).Indexes().CreateOne(ctx, entry.model); err != nil {
			log.Printf("EnsureContentIndexes: %s index error: %v", entry.collection, err)
			return err
		}
	}
	return nil
}
