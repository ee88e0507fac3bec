package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered channel/account. The password hash and the
// current refresh token are never serialized to clients.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	FullName     string               `bson:"fullName" json:"fullName"`
	Avatar       string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CoverImage   string               `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	PasswordHash string               `bson:"password,omitempty" json:"-"`
	RefreshToken string               `bson:"refreshToken,omitempty" json:"-"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory,omitempty" json:"watchHistory,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}
