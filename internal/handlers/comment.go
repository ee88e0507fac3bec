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

var commentSortAllowList = map[string]struct{}{
	"createdAt": {},
	"updatedAt": {},
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func GetVideoComments(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /comments/:videoId"
		defer handlePanic(c, route)

		videoID, ok := pathObjectID(c, "videoId", "video", route)
		if !ok {
			return
		}

		spec, err := parsePageSpec(c, commentSortAllowList)
		if err != nil {
			respondWithError(c, 400, route, err.Error())
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		stages := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"video": videoID}}},
		}

		result, err := paginate(ctx, db.Collection("comments"), stages, spec)
		if err != nil {
			respondWithError(c, 400, route, "Failed to load comments, please try again")
			return
		}

		respondOK(c, 200, result, "success")
	}
}

func AddComment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /comments/:videoId"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		videoID, ok := pathObjectID(c, "videoId", "video", route)
		if !ok {
			return
		}

		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		now := time.Now()
		comment := models.Comment{
			Content:   req.Content,
			Video:     videoID,
			Owner:     current.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := db.Collection("comments").InsertOne(ctx, comment)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		comment.ID = res.InsertedID.(primitive.ObjectID)

		respondOK(c, 201, comment, "Commented successfully")
	}
}

func UpdateComment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /comments/c/:commentId"
		defer handlePanic(c, route)

		commentID, ok := pathObjectID(c, "commentId", "comment", route)
		if !ok {
			return
		}

		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		updated := db.Collection("comments").FindOneAndUpdate(ctx,
			bson.M{"_id": commentID},
			bson.M{"$set": bson.M{"content": req.Content, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var comment models.Comment
		if err := updated.Decode(&comment); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Comment not found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, comment, "Comment updated successfully")
	}
}

func DeleteComment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /comments/c/:commentId"
		defer handlePanic(c, route)

		commentID, ok := pathObjectID(c, "commentId", "comment", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		res, err := db.Collection("comments").DeleteOne(ctx, bson.M{"_id": commentID})
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondWithError(c, 404, route, "Comment not found")
			return
		}

		// likes on the comment go with it, best effort
		_, _ = db.Collection("likes").DeleteMany(ctx, bson.M{"comment": commentID})

		respondOK(c, 200, nil, "Comment deleted successfully")
	}
}
