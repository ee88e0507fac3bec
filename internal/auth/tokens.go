package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jenilmangukiya/tube-backend/internal/models"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrUnknownIdentity = errors.New("unknown identity")
	// ErrTokenReuse means a refresh token with a valid signature no longer
	// matches the one stored on the user: it was already rotated or forged.
	ErrTokenReuse  = errors.New("refresh token already rotated")
	ErrPersistence = errors.New("could not persist refresh token")
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// identityTokens is the slice of user persistence the token service
// needs: the single stored refresh token per user.
type identityTokens interface {
	StoredRefreshToken(ctx context.Context, userID primitive.ObjectID) (string, error)
	SetRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error
	ClearRefreshToken(ctx context.Context, userID primitive.ObjectID) error
}

type mongoIdentityTokens struct {
	users *mongo.Collection
}

func (m mongoIdentityTokens) StoredRefreshToken(ctx context.Context, userID primitive.ObjectID) (string, error) {
	var user models.User
	if err := m.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUnknownIdentity
		}
		return "", err
	}
	return user.RefreshToken, nil
}

func (m mongoIdentityTokens) SetRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	res, err := m.users.UpdateByID(ctx, userID, bson.M{"$set": bson.M{"refreshToken": token}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return ErrPersistence
	}
	return nil
}

func (m mongoIdentityTokens) ClearRefreshToken(ctx context.Context, userID primitive.ObjectID) error {
	_, err := m.users.UpdateByID(ctx, userID, bson.M{"$unset": bson.M{"refreshToken": 1}})
	return err
}

// Service issues and verifies the access/refresh token pair. Each token
// class is signed with its own secret. A user holds at most one live
// refresh token; issuing a new pair overwrites it, so a login from a
// second device invalidates the first device's refresh chain.
type Service struct {
	identities    identityTokens
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewService(db *mongo.Database, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		identities:    mongoIdentityTokens{users: db.Collection("users")},
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (s *Service) IssueTokenPair(ctx context.Context, userID primitive.ObjectID) (TokenPair, error) {
	accessToken, err := s.sign(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.sign(userID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.identities.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) VerifyAccessToken(token string) (primitive.ObjectID, error) {
	return s.parse(token, s.accessSecret)
}

// Rotate exchanges a presented refresh token for a fresh pair. The token
// must verify against the refresh secret AND byte-match the one stored on
// the user record; a mismatch is treated as reuse of a rotated token.
func (s *Service) Rotate(ctx context.Context, presented string) (TokenPair, error) {
	userID, err := s.parse(presented, s.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}

	stored, err := s.identities.StoredRefreshToken(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}

	if stored == "" || stored != presented {
		return TokenPair{}, ErrTokenReuse
	}

	return s.IssueTokenPair(ctx, userID)
}

// Revoke clears the stored refresh token. Revoking a user that holds no
// token is a no-op.
func (s *Service) Revoke(ctx context.Context, userID primitive.ObjectID) error {
	return s.identities.ClearRefreshToken(ctx, userID)
}

func (s *Service) sign(userID primitive.ObjectID, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"_id": userID.Hex(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *Service) parse(tokenString string, secret []byte) (primitive.ObjectID, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, ErrTokenExpired
		}
		return primitive.NilObjectID, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}

	idValue, ok := claims["_id"].(string)
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(idValue)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}

	return userID, nil
}
