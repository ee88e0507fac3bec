package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildVideoListStagesEmpty(t *testing.T) {
	stages := buildVideoListStages("", "")
	assert.Empty(t, stages)
}

func TestBuildVideoListStagesOwnerFilter(t *testing.T) {
	ownerID := primitive.NewObjectID()
	stages := buildVideoListStages(ownerID.Hex(), "")
	require.Len(t, stages, 1)

	match, ok := stages[0][0].Value.(bson.M)
	require.True(t, ok)
	assert.Equal(t, ownerID, match["owner"])
}

func TestBuildVideoListStagesIgnoresMalformedOwner(t *testing.T) {
	stages := buildVideoListStages("not-an-object-id", "")
	assert.Empty(t, stages)
}

func TestBuildVideoListStagesSearchQuery(t *testing.T) {
	stages := buildVideoListStages("", "gopher")
	require.Len(t, stages, 1)

	match := stages[0][0].Value.(bson.M)
	or, ok := match["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)

	title := or[0].(bson.M)["title"].(bson.M)
	assert.Equal(t, "gopher", title["$regex"])
	assert.Equal(t, "i", title["$options"])
}

func TestBuildVideoListStagesOwnerAndQuery(t *testing.T) {
	stages := buildVideoListStages(primitive.NewObjectID().Hex(), "cats")
	assert.Len(t, stages, 2)
}

func TestVideoSortAllowList(t *testing.T) {
	for _, field := range []string{"title", "duration", "views", "isPublished", "createdAt"} {
		_, ok := videoSortAllowList[field]
		assert.True(t, ok, "field %q", field)
	}
	_, ok := videoSortAllowList["owner"]
	assert.False(t, ok, "owner is not client-sortable")
}
