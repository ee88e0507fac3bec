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

	"github.com/jenilmangukiya/tube-backend/internal/media"
	"github.com/jenilmangukiya/tube-backend/internal/models"
)

var videoSortAllowList = map[string]struct{}{
	"title":       {},
	"duration":    {},
	"views":       {},
	"isPublished": {},
	"createdAt":   {},
}

// buildVideoListStages assembles the filter stages for the video listing:
// an optional owner match (ignored when userId is not a valid id) and an
// optional case-insensitive title/description search.
func buildVideoListStages(userID, query string) mongo.Pipeline {
	stages := mongo.Pipeline{}

	if ownerID, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID)); err == nil {
		stages = append(stages, bson.D{{Key: "$match", Value: bson.M{"owner": ownerID}}})
	}

	if query = strings.TrimSpace(query); query != "" {
		stages = append(stages, bson.D{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"title": bson.M{"$regex": query, "$options": "i"}},
				bson.M{"description": bson.M{"$regex": query, "$options": "i"}},
			},
		}}})
	}

	return stages
}

func GetAllVideos(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /videos"
		defer handlePanic(c, route)

		spec, err := parsePageSpec(c, videoSortAllowList)
		if err != nil {
			respondWithError(c, 400, route, err.Error())
			return
		}

		stages := buildVideoListStages(c.Query("userId"), c.Query("query"))

		ctx, cancel := dbContext(c)
		defer cancel()

		result, err := paginate(ctx, db.Collection("videos"), stages, spec)
		if err != nil {
			respondWithError(c, 500, route, "Failed to load videos, please try again")
			return
		}

		respondOK(c, 200, result, "success")
	}
}

// PublishVideo uploads the video file and thumbnail to the media host and
// records the video. Both files are required; the duration comes back from
// the media host.
func PublishVideo(db *mongo.Database, mediaHost *media.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /videos"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		title := strings.TrimSpace(c.PostForm("title"))
		description := strings.TrimSpace(c.PostForm("description"))
		if title == "" || description == "" {
			respondWithError(c, 400, route, "title and description is required")
			return
		}

		videoHeader, err := c.FormFile("videoFile")
		if err != nil {
			respondWithError(c, 400, route, "Video file is required")
			return
		}
		thumbnailHeader, err := c.FormFile("thumbnail")
		if err != nil {
			respondWithError(c, 400, route, "Thumbnail is required")
			return
		}

		stagedVideo, err := media.StageVideo(videoHeader, uploadDir)
		if err != nil {
			respondAPIError(c, route, newAPIError(400, err.Error()))
			return
		}
		stagedThumbnail, err := media.StageImage(thumbnailHeader, uploadDir)
		if err != nil {
			respondAPIError(c, route, newAPIError(400, err.Error()))
			return
		}

		videoFile := mediaHost.Upload(stagedVideo)
		if videoFile == nil {
			respondWithError(c, 500, route, "something went wrong while uploading video file")
			return
		}

		thumbnail := mediaHost.Upload(stagedThumbnail)
		if thumbnail == nil {
			// do not leave an orphaned video asset behind
			mediaHost.RemoveByURL(videoFile.URL, "video")
			respondWithError(c, 500, route, "something went wrong while uploading thumbnail")
			return
		}

		now := time.Now()
		video := models.Video{
			VideoFile:   videoFile.URL,
			Thumbnail:   thumbnail.URL,
			Owner:       current.ID,
			Title:       title,
			Description: description,
			Duration:    videoFile.Duration,
			Views:       0,
			IsPublished: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		res, err := db.Collection("videos").InsertOne(ctx, video)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		video.ID = res.InsertedID.(primitive.ObjectID)

		respondOK(c, 201, video, "Video uploaded successfully")
	}
}

func GetVideoByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /videos/:videoId"
		defer handlePanic(c, route)

		videoID, ok := pathObjectID(c, "videoId", "video", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var video models.Video
		if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "No video found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, video, "success")
	}
}

type UpdateVideoRequest struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
}

func UpdateVideo(db *mongo.Database, mediaHost *media.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /videos/:videoId"
		defer handlePanic(c, route)

		videoID, ok := pathObjectID(c, "videoId", "video", route)
		if !ok {
			return
		}

		var req UpdateVideoRequest
		_ = c.ShouldBind(&req)

		patch := bson.M{}
		if title := strings.TrimSpace(req.Title); title != "" {
			patch["title"] = title
		}
		if description := strings.TrimSpace(req.Description); description != "" {
			patch["description"] = description
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		oldThumbnail := ""
		if header, err := c.FormFile("thumbnail"); err == nil {
			staged, err := media.StageImage(header, uploadDir)
			if err != nil {
				respondAPIError(c, route, newAPIError(400, err.Error()))
				return
			}
			if uploaded := mediaHost.Upload(staged); uploaded != nil {
				var existing models.Video
				if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Decode(&existing); err == nil {
					oldThumbnail = existing.Thumbnail
				}
				patch["thumbnail"] = uploaded.URL
			}
		}

		if len(patch) == 0 {
			respondWithError(c, 404, route, "Nothing to update")
			return
		}
		patch["updatedAt"] = time.Now()

		updated := db.Collection("videos").FindOneAndUpdate(ctx,
			bson.M{"_id": videoID},
			bson.M{"$set": patch},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var video models.Video
		if err := updated.Decode(&video); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "No video found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		if oldThumbnail != "" {
			mediaHost.RemoveByURL(oldThumbnail, "image")
		}

		respondOK(c, 200, video, "Updated successfully")
	}
}

// DeleteVideo removes the media assets best-effort, then the document and
// its dependent comments and likes.
func DeleteVideo(db *mongo.Database, mediaHost *media.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /videos/:videoId"
		defer handlePanic(c, route)

		videoID, ok := pathObjectID(c, "videoId", "video", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var video models.Video
		if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Video not found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		mediaHost.RemoveByURL(video.Thumbnail, "image")
		mediaHost.RemoveByURL(video.VideoFile, "video")

		if _, err := db.Collection("videos").DeleteOne(ctx, bson.M{"_id": videoID}); err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		// dependent documents, best effort
		_, _ = db.Collection("comments").DeleteMany(ctx, bson.M{"video": videoID})
		_, _ = db.Collection("likes").DeleteMany(ctx, bson.M{"video": videoID})

		respondOK(c, 200, video, "Deleted successfully")
	}
}

func TogglePublishStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /videos/:videoId"
		defer handlePanic(c, route)

		videoID, ok := pathObjectID(c, "videoId", "video", route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		updated := db.Collection("videos").FindOneAndUpdate(ctx,
			bson.M{"_id": videoID},
			mongo.Pipeline{bson.D{{Key: "$set", Value: bson.M{
				"isPublished": bson.M{"$not": "$isPublished"},
				"updatedAt":   time.Now(),
			}}}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var video models.Video
		if err := updated.Decode(&video); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "No video found")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, video, "success")
	}
}
