package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jenilmangukiya/tube-backend/internal/auth"
	"github.com/jenilmangukiya/tube-backend/internal/models"
)

const identityKey = "currentUser"

// Session resolves the acting user before a handler runs. The access token
// is read from the accessToken cookie first, falling back to an
// Authorization bearer header. The loaded user carries no password hash or
// refresh token; nothing is persisted here.
func Session(tokens *auth.Service, db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			log.Println("[AUTH] [ERROR] missing token")
			abortUnauthorized(c, "Unauthorized request")
			return
		}

		userID, err := tokens.VerifyAccessToken(tokenString)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			abortUnauthorized(c, "Invalid access token")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		projection := options.FindOne().SetProjection(bson.M{
			"password":     0,
			"refreshToken": 0,
		})

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}, projection).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] token user lookup failed:", err)
			abortUnauthorized(c, "Invalid access token")
			return
		}

		c.Set(identityKey, user)
		c.Next()
	}
}

// CurrentUser returns the identity attached by Session.
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return ""
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"errors":     []string{},
		"success":    false,
	})
}
