package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jenilmangukiya/tube-backend/internal/models"
)

type CreatePlaylistRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type UpdatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func CreatePlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /playlists"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		var req CreatePlaylistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		now := time.Now()
		playlist := models.Playlist{
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			Owner:       current.ID,
			Videos:      []primitive.ObjectID{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("playlists").InsertOne(ctx, playlist)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		playlist.ID = res.InsertedID.(primitive.ObjectID)

		respondOK(c, 201, playlist, "Playlist created successfully")
	}
}

func GetUserPlaylists(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /playlists/user/:userId"
		defer handlePanic(c, route)

		userID, ok := pathObjectID(c, "userId", "user", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		cursor, err := db.Collection("playlists").Find(ctx, bson.M{"owner": userID})
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		playlists := []models.Playlist{}
		if err := cursor.All(ctx, &playlists); err != nil {
			respondWithError(c, 500, route, "decode error")
			return
		}

		respondOK(c, 200, playlists, "success")
	}
}

func GetPlaylistByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /playlists/:playlistId"
		defer handlePanic(c, route)

		playlistID, ok := pathObjectID(c, "playlistId", "playlist", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var playlist models.Playlist
		if err := db.Collection("playlists").FindOne(ctx, bson.M{"_id": playlistID}).Decode(&playlist); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Playlist not found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, playlist, "success")
	}
}

func AddVideoToPlaylist(db *mongo.Database) gin.HandlerFunc {
	return changePlaylistMembership(db, "$addToSet", "Video added to playlist")
}

func RemoveVideoFromPlaylist(db *mongo.Database) gin.HandlerFunc {
	return changePlaylistMembership(db, "$pull", "Video removed from playlist")
}

func changePlaylistMembership(db *mongo.Database, operator, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := "PATCH /playlists/:operation/:videoId/:playlistId"
		defer handlePanic(c, route)

		playlistID, ok := pathObjectID(c, "playlistId", "playlist", route)
		if !ok {
			return
		}
		videoID, ok := pathObjectID(c, "videoId", "video", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		exists, err := documentExists(ctx, db.Collection("videos"), videoID)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		if !exists {
			respondWithError(c, 404, route, "Video not found")
			return
		}

		updated := db.Collection("playlists").FindOneAndUpdate(ctx,
			bson.M{"_id": playlistID},
			bson.M{
				operator: bson.M{"videos": videoID},
				"$set":   bson.M{"updatedAt": time.Now()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var playlist models.Playlist
		if err := updated.Decode(&playlist); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Playlist not found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, playlist, message)
	}
}

func UpdatePlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /playlists/:playlistId"
		defer handlePanic(c, route)

		playlistID, ok := pathObjectID(c, "playlistId", "playlist", route)
		if !ok {
			return
		}

		var req UpdatePlaylistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, 400, route, "invalid body")
			return
		}

		patch := bson.M{}
		if name := strings.TrimSpace(req.Name); name != "" {
			patch["name"] = name
		}
		if description := strings.TrimSpace(req.Description); description != "" {
			patch["description"] = description
		}
		if len(patch) == 0 {
			respondWithError(c, 400, route, "Name or description is required")
			return
		}
		patch["updatedAt"] = time.Now()

		ctx, cancel := dbContext(c)
		defer cancel()

		updated := db.Collection("playlists").FindOneAndUpdate(ctx,
			bson.M{"_id": playlistID},
			bson.M{"$set": patch},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var playlist models.Playlist
		if err := updated.Decode(&playlist); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Playlist not found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, playlist, "Playlist updated successfully")
	}
}

func DeletePlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /playlists/:playlistId"
		defer handlePanic(c, route)

		playlistID, ok := pathObjectID(c, "playlistId", "playlist", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		deleted := db.Collection("playlists").FindOneAndDelete(ctx, bson.M{"_id": playlistID})

		var playlist models.Playlist
		if err := deleted.Decode(&playlist); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Playlist not found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, playlist, "Playlist deleted successfully")
	}
}
