package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jenilmangukiya/tube-backend/internal/models"
)

var likedVideoSortAllowList = map[string]struct{}{
	"title":     {},
	"duration":  {},
	"views":     {},
	"createdAt": {},
}

func ToggleVideoLike(db *mongo.Database) gin.HandlerFunc {
	return toggleLike(db, "videos", "video", "videoId", "Video")
}

func ToggleCommentLike(db *mongo.Database) gin.HandlerFunc {
	return toggleLike(db, "comments", "comment", "commentId", "Comment")
}

func ToggleTweetLike(db *mongo.Database) gin.HandlerFunc {
	return toggleLike(db, "tweets", "tweet", "tweetId", "Tweet")
}

// toggleLike flips a like on one target kind. The target must exist; the
// response reports the resulting state and the target's total like count.
func toggleLike(db *mongo.Database, targetCollection, targetField, param, label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := "POST /likes/toggle/" + targetField
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		targetID, ok := pathObjectID(c, param, targetField, route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		exists, err := documentExists(ctx, db.Collection(targetCollection), targetID)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		if !exists {
			respondWithError(c, 404, route, label+" not found")
			return
		}

		filter := bson.M{targetField: targetID, "likedBy": current.ID}
		like := likeDocument(targetField, targetID, current.ID)

		liked, err := toggleRelation(ctx, db.Collection("likes"), filter, like)
		if err != nil {
			respondWithError(c, 400, route, "Failed, please try again")
			return
		}

		totalLikes, err := db.Collection("likes").CountDocuments(ctx, bson.M{targetField: targetID})
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		message := "Unliked successfully"
		if liked {
			message = "Liked successfully"
		}
		respondOK(c, 200, gin.H{"liked": liked, "likes": totalLikes}, message)
	}
}

func likeDocument(targetField string, targetID, likedBy primitive.ObjectID) models.Like {
	like := models.Like{LikedBy: likedBy, CreatedAt: time.Now()}
	switch targetField {
	case "video":
		like.Video = &targetID
	case "comment":
		like.Comment = &targetID
	case "tweet":
		like.Tweet = &targetID
	}
	return like
}

// GetLikedVideos lists the videos the acting user liked. The like rows
// are joined to their videos and the video document becomes the listed
// item, so the sort fields are video fields.
func GetLikedVideos(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /likes/videos"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		spec, err := parsePageSpec(c, likedVideoSortAllowList)
		if err != nil {
			respondWithError(c, 400, route, err.Error())
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		stages := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{
				"likedBy": current.ID,
				"video":   bson.M{"$exists": true},
			}}},
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "videos",
				"localField":   "video",
				"foreignField": "_id",
				"as":           "video",
			}}},
			bson.D{{Key: "$unwind", Value: "$video"}},
			bson.D{{Key: "$replaceRoot", Value: bson.M{
				"newRoot": bson.M{"$mergeObjects": bson.A{"$video"}},
			}}},
		}

		result, err := paginate(ctx, db.Collection("likes"), stages, spec)
		if err != nil {
			respondWithError(c, 400, route, "Failed to load liked videos, please try again")
			return
		}

		respondOK(c, 200, result, "success")
	}
}
