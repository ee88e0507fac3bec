package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jenilmangukiya/tube-backend/internal/models"
)

func ToggleSubscription(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /subscriptions/c/:channelId"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		channelID, ok := pathObjectID(c, "channelId", "channel", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		exists, err := documentExists(ctx, db.Collection("users"), channelID)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		if !exists {
			respondWithError(c, 404, route, "Channel not found")
			return
		}

		filter := bson.M{"subscriber": current.ID, "channel": channelID}
		subscription := models.Subscription{
			Subscriber: current.ID,
			Channel:    channelID,
			CreatedAt:  time.Now(),
		}

		subscribed, err := toggleRelation(ctx, db.Collection("subscriptions"), filter, subscription)
		if err != nil {
			respondWithError(c, 400, route, "Failed, please try again")
			return
		}

		if subscribed {
			respondOK(c, 200, gin.H{"subscribed": true}, "Subscribed successfully")
			return
		}
		respondOK(c, 200, gin.H{"subscribed": false}, "Unsubscribed successfully")
	}
}

// GetChannelSubscribers returns the public profiles of everyone
// subscribed to a channel.
func GetChannelSubscribers(db *mongo.Database) gin.HandlerFunc {
	return subscriptionUserList(db, "channelId", "channel", "subscriber", "Channel not found")
}

// GetSubscribedChannels returns the public profiles of every channel a
// user is subscribed to.
func GetSubscribedChannels(db *mongo.Database) gin.HandlerFunc {
	return subscriptionUserList(db, "subscriberId", "subscriber", "channel", "User not found")
}

func subscriptionUserList(db *mongo.Database, param, matchField, joinField, missingMessage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := "GET /subscriptions/" + param
		defer handlePanic(c, route)

		id, ok := pathObjectID(c, param, matchField, route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		exists, err := documentExists(ctx, db.Collection("users"), id)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		if !exists {
			respondWithError(c, 404, route, missingMessage)
			return
		}

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{matchField: id}}},
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   joinField,
				"foreignField": "_id",
				"as":           "user",
			}}},
			bson.D{{Key: "$unwind", Value: "$user"}},
			bson.D{{Key: "$project", Value: bson.M{
				"username": "$user.username",
				"email":    "$user.email",
				"fullName": "$user.fullName",
				"avatar":   "$user.avatar",
			}}},
		}

		cursor, err := db.Collection("subscriptions").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var users []bson.M
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, 500, route, "decode error")
			return
		}
		if users == nil {
			users = []bson.M{}
		}

		respondOK(c, 200, users, "success")
	}
}
