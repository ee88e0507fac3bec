package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jenilmangukiya/tube-backend/internal/middleware"
	"github.com/jenilmangukiya/tube-backend/internal/models"
)

func dbContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 5*time.Second)
}

// pathObjectID parses an :id path parameter; a malformed id answers 404
// with "Invalid <label>".
func pathObjectID(c *gin.Context, param, label, route string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		respondWithError(c, 404, route, "Invalid "+label)
		return primitive.NilObjectID, false
	}
	return id, true
}

// requireCurrentUser fetches the identity set by the session middleware.
// Routes calling this are always mounted behind it, so a miss is a wiring
// bug and answers 401.
func requireCurrentUser(c *gin.Context, route string) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondWithError(c, 401, route, "Unauthorized request")
		return models.User{}, false
	}
	return user, true
}

func documentExists(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (bool, error) {
	count, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
