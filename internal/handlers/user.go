package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/jenilmangukiya/tube-backend/internal/auth"
	"github.com/jenilmangukiya/tube-backend/internal/media"
	"github.com/jenilmangukiya/tube-backend/internal/models"
)

type RegisterRequest struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
	FullName string `form:"fullName" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type UpdateAccountRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
}

var userProjection = bson.M{"password": 0, "refreshToken": 0}

func setAuthCookies(c *gin.Context, pair auth.TokenPair, accessTTL, refreshTTL time.Duration) {
	c.SetCookie("accessToken", pair.AccessToken, int(accessTTL.Seconds()), "/", "", true, true)
	c.SetCookie("refreshToken", pair.RefreshToken, int(refreshTTL.Seconds()), "/", "", true, true)
}

func clearAuthCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", "", true, true)
	c.SetCookie("refreshToken", "", -1, "/", "", true, true)
}

// Register creates an account from a multipart form. Avatar and cover
// image files are optional; a failed media upload leaves the field empty
// rather than failing registration.
func Register(db *mongo.Database, mediaHost *media.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBind(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))
		email := strings.ToLower(strings.TrimSpace(req.Email))
		fullName := strings.TrimSpace(req.FullName)
		if username == "" || email == "" || fullName == "" || strings.TrimSpace(req.Password) == "" {
			respondWithError(c, 400, route, "All fields are required")
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{
			"$or": []bson.M{{"username": username}, {"email": email}},
		})
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, 409, route, "Username or email already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, 500, route, "password hash failed")
			return
		}

		avatarURL := uploadFormImage(c, mediaHost, uploadDir, "avatar")
		coverURL := uploadFormImage(c, mediaHost, uploadDir, "coverImage")

		now := time.Now()
		user := models.User{
			Username:     username,
			Email:        email,
			FullName:     fullName,
			Avatar:       avatarURL,
			CoverImage:   coverURL,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, 409, route, "Username or email already exists")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		created, err := findUserByID(c, db, res.InsertedID.(primitive.ObjectID))
		if err != nil {
			respondWithError(c, 500, route, "Something went wrong while creating user")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", username)
		respondOK(c, 201, gin.H{"user": created}, "User registered successfully")
	}
}

func Login(db *mongo.Database, tokens *auth.Service, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if username == "" && email == "" {
			respondWithError(c, 400, route, "Username or email is required")
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{
			"$or": []bson.M{{"username": username}, {"email": email}},
		}).Decode(&user)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, 404, route, "Username or email does not exist")
				return
			}
			respondWithError(c, 500, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, 401, route, "Invalid credentials")
			return
		}

		pair, err := tokens.IssueTokenPair(ctx, user.ID)
		if err != nil {
			respondWithError(c, 500, route, "something went wrong while creating tokens")
			return
		}

		loggedIn, err := findUserByID(c, db, user.ID)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		setAuthCookies(c, pair, accessTTL, refreshTTL)
		log.Println("[AUTH] [INFO] user login succeeded:", user.Username)
		respondOK(c, 200, gin.H{
			"user":         loggedIn,
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		}, "User login successful")
	}
}

// RefreshAccessToken rotates the refresh token: the presented token must
// match the stored one, and a fresh pair replaces it.
func RefreshAccessToken(tokens *auth.Service, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/refreshAccessToken"
		defer handlePanic(c, route)

		presented := ""
		if cookie, err := c.Cookie("refreshToken"); err == nil {
			presented = strings.TrimSpace(cookie)
		}
		if presented == "" {
			var req RefreshRequest
			if err := c.ShouldBindJSON(&req); err == nil {
				presented = strings.TrimSpace(req.RefreshToken)
			}
		}
		if presented == "" {
			respondWithError(c, 401, route, "Unauthorized request")
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		pair, err := tokens.Rotate(ctx, presented)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				respondWithError(c, 401, route, "Refresh token is expired")
			case errors.Is(err, auth.ErrTokenReuse):
				respondWithError(c, 401, route, "Refresh token is expired or used")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnknownIdentity):
				respondWithError(c, 401, route, "Invalid refresh token")
			default:
				respondWithError(c, 500, route, "something went wrong while creating tokens")
			}
			return
		}

		setAuthCookies(c, pair, accessTTL, refreshTTL)
		respondOK(c, 200, pair, "Access token refreshed")
	}
}

func Logout(tokens *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/logout"
		defer handlePanic(c, route)

		user, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		if err := tokens.Revoke(ctx, user.ID); err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		clearAuthCookies(c)
		respondOK(c, 200, gin.H{}, "User logged out successfully")
	}
}

func ChangeCurrentPassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/changeCurrentPassword"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		// session middleware strips the hash, load it explicitly
		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": current.ID}).Decode(&user); err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			respondWithError(c, 400, route, "Invalid old password")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, 500, route, "password hash failed")
			return
		}

		_, err = db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{"password": string(hash), "updatedAt": time.Now()},
		})
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, gin.H{}, "Password changed successfully")
	}
}

func GetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/current-user"

		user, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}
		respondOK(c, 200, user, "success")
	}
}

func UpdateAccountInfo(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /users/updateAccountInfo"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		var req UpdateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		updated := db.Collection("users").FindOneAndUpdate(ctx,
			bson.M{"_id": current.ID},
			bson.M{"$set": bson.M{
				"email":     strings.ToLower(strings.TrimSpace(req.Email)),
				"fullName":  strings.TrimSpace(req.FullName),
				"updatedAt": time.Now(),
			}},
			options.FindOneAndUpdate().
				SetReturnDocument(options.After).
				SetProjection(userProjection),
		)

		var user models.User
		if err := updated.Decode(&user); err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		respondOK(c, 200, user, "User updated successfully")
	}
}

func UpdateUserAvatar(db *mongo.Database, mediaHost *media.Client, uploadDir string) gin.HandlerFunc {
	return updateUserImage(db, mediaHost, uploadDir, "avatar", "Avatar")
}

func UpdateCoverImage(db *mongo.Database, mediaHost *media.Client, uploadDir string) gin.HandlerFunc {
	return updateUserImage(db, mediaHost, uploadDir, "coverImage", "Cover image")
}

func updateUserImage(db *mongo.Database, mediaHost *media.Client, uploadDir, field, label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := "POST /users/update" + label
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		file, err := c.FormFile(field)
		if err != nil {
			respondWithError(c, 400, route, label+" is required")
			return
		}

		staged, err := media.StageImage(file, uploadDir)
		if err != nil {
			respondAPIError(c, route, newAPIError(400, err.Error()))
			return
		}

		uploaded := mediaHost.Upload(staged)
		if uploaded == nil {
			respondWithError(c, 500, route, "something went wrong while uploading "+label)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		updated := db.Collection("users").FindOneAndUpdate(ctx,
			bson.M{"_id": current.ID},
			bson.M{"$set": bson.M{field: uploaded.URL, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().
				SetReturnDocument(options.After).
				SetProjection(userProjection),
		)

		var user models.User
		if err := updated.Decode(&user); err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}

		// best-effort cleanup of the replaced asset
		old := current.Avatar
		if field == "coverImage" {
			old = current.CoverImage
		}
		if old != "" {
			mediaHost.RemoveByURL(old, "image")
		}

		respondOK(c, 200, user, label+" updated")
	}
}

// GetUserChannelProfile aggregates a channel page: subscriber counts from
// both directions of the subscriptions collection plus whether the acting
// user is subscribed.
func GetUserChannelProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/c/:username"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		username := strings.ToLower(strings.TrimSpace(c.Param("username")))
		if username == "" {
			respondWithError(c, 400, route, "Username is required")
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"username": username}}},
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "subscriptions",
				"localField":   "_id",
				"foreignField": "channel",
				"as":           "subscribers",
			}}},
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "subscriptions",
				"localField":   "_id",
				"foreignField": "subscriber",
				"as":           "subscribedTo",
			}}},
			bson.D{{Key: "$addFields", Value: bson.M{
				"subscribersCount":          bson.M{"$size": "$subscribers"},
				"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
				"isSubscribed": bson.M{"$cond": bson.M{
					"if":   bson.M{"$in": bson.A{current.ID, "$subscribers.subscriber"}},
					"then": true,
					"else": false,
				}},
			}}},
			bson.D{{Key: "$project", Value: bson.M{
				"fullName":                  1,
				"username":                  1,
				"subscribersCount":          1,
				"channelsSubscribedToCount": 1,
				"isSubscribed":              1,
				"avatar":                    1,
				"coverImage":                1,
				"email":                     1,
			}}},
		}

		cursor, err := db.Collection("users").Aggregate(ctx, pipeline)
		if err != nil {
			respondWithError(c, 500, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var channels []bson.M
		if err := cursor.All(ctx, &channels); err != nil {
			respondWithError(c, 500, route, "decode error")
			return
		}
		if len(channels) == 0 {
			respondWithError(c, 404, route, "Channel not found")
			return
		}

		respondOK(c, 200, channels[0], "success")
	}
}

func GetWatchHistory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/history"
		defer handlePanic(c, route)

		current, ok := requireCurrentUser(c, route)
		if !ok {
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"_id": current.ID}}},
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "videos",
				"localField":   "watchHistory",
				"foreignField": "_id",
				"as":           "watchHistory",
				"pipeline": bson.A{
					bson.M{"$lookup": bson.M{
						"from":         "users",
						"localField":   "owner",
						"foreignField": "_id",
						"as":           "owner",
						"pipeline": bson.A{
							bson.M{"$project": bson.M{
								"fullName": 1,
								"username": 1,
								"avatar":   1,
							}},
						},
					}},
					bson.M{"$addFields": bson.M{
						"owner": bson.M{"$first": "$owner"},
					}},
				},
			}}},
		}

		cursor, err := db.Collection("users").Aggregate(ctx, pipeline)
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
		if len(users) == 0 {
			respondWithError(c, 404, route, "User not found")
			return
		}

		respondOK(c, 200, users[0]["watchHistory"], "Watch history fetched successfully")
	}
}

func uploadFormImage(c *gin.Context, mediaHost *media.Client, uploadDir, field string) string {
	file, err := c.FormFile(field)
	if err != nil {
		return ""
	}
	staged, err := media.StageImage(file, uploadDir)
	if err != nil {
		log.Printf("[AUTH] staging %s failed: %v", field, err)
		return ""
	}
	uploaded := mediaHost.Upload(staged)
	if uploaded == nil {
		return ""
	}
	return uploaded.URL
}

func findUserByID(c *gin.Context, db *mongo.Database, id primitive.ObjectID) (models.User, error) {
	ctx, cancel := dbContext(c)
	defer cancel()

	var user models.User
	err := db.Collection("users").
		FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(userProjection)).
		Decode(&user)
	return user, err
}
