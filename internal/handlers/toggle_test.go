package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeRelationColl holds a single relation row's presence flag.
type fakeRelationColl struct {
	present   bool
	deleteErr error
	insertErr error
}

func (f *fakeRelationColl) DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	if f.present {
		f.present = false
		return &mongo.DeleteResult{DeletedCount: 1}, nil
	}
	return &mongo.DeleteResult{}, nil
}

func (f *fakeRelationColl) InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.present = true
	return &mongo.InsertOneResult{InsertedID: primitive.NewObjectID()}, nil
}

func toggleTestArgs() (bson.M, interface{}) {
	likedBy := primitive.NewObjectID()
	video := primitive.NewObjectID()
	filter := bson.M{"likedBy": likedBy, "video": video}
	return filter, likeDocument("video", video, likedBy)
}

func TestToggleRelationTurnsOnThenOff(t *testing.T) {
	coll := &fakeRelationColl{}
	filter, doc := toggleTestArgs()

	on, err := toggleRelation(context.Background(), coll, filter, doc)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, coll.present)

	on, err = toggleRelation(context.Background(), coll, filter, doc)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, coll.present)
}

func TestToggleRelationExistingRowTurnsOff(t *testing.T) {
	coll := &fakeRelationColl{present: true}
	filter, doc := toggleTestArgs()

	on, err := toggleRelation(context.Background(), coll, filter, doc)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, coll.present)
}

func TestToggleRelationDuplicateKeyMeansAlreadyOn(t *testing.T) {
	// a concurrent insert between our delete and insert trips the unique
	// index; that must read as on, not as an error
	coll := &fakeRelationColl{
		insertErr: mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}},
	}
	filter, doc := toggleTestArgs()

	on, err := toggleRelation(context.Background(), coll, filter, doc)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestToggleRelationDeleteErrorPropagates(t *testing.T) {
	coll := &fakeRelationColl{deleteErr: assert.AnError}
	filter, doc := toggleTestArgs()

	_, err := toggleRelation(context.Background(), coll, filter, doc)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestToggleRelationInsertErrorPropagates(t *testing.T) {
	coll := &fakeRelationColl{insertErr: assert.AnError}
	filter, doc := toggleTestArgs()

	_, err := toggleRelation(context.Background(), coll, filter, doc)
	assert.ErrorIs(t, err, assert.AnError)
}
