package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jenilmangukiya/tube-backend/internal/models"
)

var tweetSortAllowList = map[string]struct{}{
	"createdAt": {},
	"updatedAt": {},
}

type TweetRequest struct {
	Content string `json:"content" binding:"required"`
}

func CreateTweet(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tweets"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		var req TweetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		now := time.Now()
		tweet := models.Tweet{
			Content:   req.Content,
			Owner:     current.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := db.Collection("tweets").InsertOne(ctx, tweet)
		if err != nil {
			respondWithError(c, 500, route, "Failed to tweet, please try again")
			return
		}
		tweet.ID = res.InsertedID.(primitive.ObjectID)

		respondOK(c, 201, tweet, "Tweeted successfully")
	}
}

func GetUserTweets(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /tweets/user/:userId"
		defer handlePanic(c, route)

		userID, ok := pathObjectID(c, "userId", "user", route)
		if !ok {
			return
		}

		spec, err := parsePageSpec(c, tweetSortAllowList)
		if err != nil {
			respondWithError(c, 400, route, err.Error())
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		stages := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"owner": userID}}},
		}

		result, err := paginate(ctx, db.Collection("tweets"), stages, spec)
		if err != nil {
			respondWithError(c, 400, route, "Failed to load tweets, please try again")
			return
		}

		respondOK(c, 200, result, "success")
	}
}

func UpdateTweet(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /tweets/:tweetId"
		defer handlePanic(c, route)

		tweetID, ok := pathObjectID(c, "tweetId", "tweet", route)
		if !ok {
			return
		}

		var req TweetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		updated := db.Collection("tweets").FindOneAndUpdate(ctx,
			bson.M{"_id": tweetID},
			bson.M{"$set": bson.M{"content": req.Content, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var tweet models.Tweet
		if err := updated.Decode(&tweet); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Tweet not found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, tweet, "Tweet updated successfully")
	}
}

func DeleteTweet(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /tweets/:tweetId"
		defer handlePanic(c, route)

		tweetID, ok := pathObjectID(c, "tweetId", "tweet", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		res, err := db.Collection("tweets").DeleteOne(ctx, bson.M{"_id": tweetID})
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondWithError(c, 404, route, "Tweet not found")
			return
		}

		_, _ = db.Collection("likes").DeleteMany(ctx, bson.M{"tweet": tweetID})

		respondOK(c, 200, nil, "Tweet deleted successfully")
	}
}
