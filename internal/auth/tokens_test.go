package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeIdentityTokens keeps the per-user refresh token in memory, with the
// same contract as the mongo-backed store.
type fakeIdentityTokens struct {
	tokens map[primitive.ObjectID]string
}

func newFakeIdentityTokens(userIDs ...primitive.ObjectID) *fakeIdentityTokens {
	f := &fakeIdentityTokens{tokens: map[primitive.ObjectID]string{}}
	for _, id := range userIDs {
		f.tokens[id] = ""
	}
	return f
}

func (f *fakeIdentityTokens) StoredRefreshToken(_ context.Context, userID primitive.ObjectID) (string, error) {
	token, ok := f.tokens[userID]
	if !ok {
		return "", ErrUnknownIdentity
	}
	return token, nil
}

func (f *fakeIdentityTokens) SetRefreshToken(_ context.Context, userID primitive.ObjectID, token string) error {
	if _, ok := f.tokens[userID]; !ok {
		return ErrPersistence
	}
	f.tokens[userID] = token
	return nil
}

func (f *fakeIdentityTokens) ClearRefreshToken(_ context.Context, userID primitive.ObjectID) error {
	if _, ok := f.tokens[userID]; ok {
		f.tokens[userID] = ""
	}
	return nil
}

func testService(identities identityTokens) *Service {
	return &Service{
		identities:    identities,
		accessSecret:  []byte("access-secret"),
		refreshSecret: []byte("refresh-secret"),
		accessTTL:     24 * time.Hour,
		refreshTTL:    10 * 24 * time.Hour,
		now:           time.Now,
	}
}

func TestVerifyAccessTokenRoundtrip(t *testing.T) {
	s := testService(nil)
	userID := primitive.NewObjectID()

	token, err := s.sign(userID, s.accessSecret, s.accessTTL)
	require.NoError(t, err)

	got, err := s.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	s := testService(nil)
	token, err := s.sign(primitive.NewObjectID(), s.accessSecret, s.accessTTL)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(s.accessTTL + time.Minute) }

	_, err = s.VerifyAccessToken(token)
	assert.True(t, errors.Is(err, ErrTokenExpired), "expected ErrTokenExpired, got %v", err)
}

func TestVerifyAccessTokenExpiredAtBoundary(t *testing.T) {
	s := testService(nil)
	issued := time.Now()
	s.now = func() time.Time { return issued }

	token, err := s.sign(primitive.NewObjectID(), s.accessSecret, s.accessTTL)
	require.NoError(t, err)

	// exp itself is the first invalid instant
	s.now = func() time.Time { return issued.Add(s.accessTTL).Add(time.Second) }
	_, err = s.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccessTokenWrongSecret(t *testing.T) {
	s := testService(nil)
	token, err := s.sign(primitive.NewObjectID(), []byte("some-other-secret"), s.accessTTL)
	require.NoError(t, err)

	_, err = s.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenRejectedAsRefreshToken(t *testing.T) {
	s := testService(nil)
	token, err := s.sign(primitive.NewObjectID(), s.accessSecret, s.accessTTL)
	require.NoError(t, err)

	_, err = s.parse(token, s.refreshSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessTokenGarbage(t *testing.T) {
	s := testService(nil)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := s.VerifyAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestVerifyAccessTokenTampered(t *testing.T) {
	s := testService(nil)
	token, err := s.sign(primitive.NewObjectID(), s.accessSecret, s.accessTTL)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = s.VerifyAccessToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueTokenPairPersistsRefreshToken(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeIdentityTokens(userID)
	s := testService(store)

	pair, err := s.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)

	assert.Equal(t, pair.RefreshToken, store.tokens[userID])
}

func TestIssueTokenPairUnknownUser(t *testing.T) {
	s := testService(newFakeIdentityTokens())

	_, err := s.IssueTokenPair(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestRotateIssuesFreshPairAndPersistsIt(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeIdentityTokens(userID)
	s := testService(store)

	issued := time.Now()
	s.now = func() time.Time { return issued }

	first, err := s.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	// a later clock makes the rotated token distinct from the first
	s.now = func() time.Time { return issued.Add(time.Minute) }

	second, err := s.Rotate(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, second.RefreshToken, store.tokens[userID])
}

func TestRotateReplayedTokenAfterRotation(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeIdentityTokens(userID)
	s := testService(store)

	issued := time.Now()
	s.now = func() time.Time { return issued }

	first, err := s.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(time.Minute) }
	_, err = s.Rotate(context.Background(), first.RefreshToken)
	require.NoError(t, err)

	// the pre-rotation token still verifies but no longer matches the
	// stored one
	_, err = s.Rotate(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenReuse)
}

func TestRotateMismatchedTokenWithValidSignature(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeIdentityTokens(userID)
	s := testService(store)

	issued := time.Now()
	s.now = func() time.Time { return issued }

	_, err := s.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(time.Minute) }
	forged, err := s.sign(userID, s.refreshSecret, s.refreshTTL)
	require.NoError(t, err)

	_, err = s.Rotate(context.Background(), forged)
	assert.ErrorIs(t, err, ErrTokenReuse)
}

func TestRotateUnknownIdentity(t *testing.T) {
	s := testService(newFakeIdentityTokens())

	token, err := s.sign(primitive.NewObjectID(), s.refreshSecret, s.refreshTTL)
	require.NoError(t, err)

	_, err = s.Rotate(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestRevokeClearsStoredTokenAndIsIdempotent(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeIdentityTokens(userID)
	s := testService(store)

	pair, err := s.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	require.NoError(t, s.Revoke(context.Background(), userID))
	require.NoError(t, s.Revoke(context.Background(), userID))
	assert.Empty(t, store.tokens[userID])

	_, err = s.Rotate(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenReuse)
}
