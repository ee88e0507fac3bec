package handlers

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errInvalidPageSpec = errors.New("page and limit must be positive integers")

const defaultSortField = "createdAt"

// pageSpec is built per request from query parameters and never persisted.
type pageSpec struct {
	Page   int64
	Limit  int64
	SortBy string
	Desc   bool
}

type pageResult struct {
	Docs  []bson.M `json:"docs"`
	Total int64    `json:"total"`
	Page  int64    `json:"page"`
	Limit int64    `json:"limit"`
}

// parsePageSpec reads page/limit/sortBy/sortType query parameters.
// sortBy must be in the per-resource allow-list, otherwise the default
// creation-timestamp field is used; client-supplied field names never
// reach the store unchecked. sortType matches "desc" case-insensitively,
// anything else sorts ascending.
func parsePageSpec(c *gin.Context, allowedSortFields map[string]struct{}) (pageSpec, error) {
	spec := pageSpec{
		Page:   1,
		Limit:  10,
		SortBy: defaultSortField,
		Desc:   true,
	}

	if pageStr := strings.TrimSpace(c.Query("page")); pageStr != "" {
		page, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || page < 1 {
			return pageSpec{}, errInvalidPageSpec
		}
		spec.Page = page
	}

	if limitStr := strings.TrimSpace(c.Query("limit")); limitStr != "" {
		limit, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || limit < 1 {
			return pageSpec{}, errInvalidPageSpec
		}
		spec.Limit = limit
	}

	if sortBy := strings.TrimSpace(c.Query("sortBy")); sortBy != "" {
		if _, ok := allowedSortFields[sortBy]; ok {
			spec.SortBy = sortBy
		}
	}

	if sortType := strings.TrimSpace(c.Query("sortType")); sortType != "" {
		spec.Desc = strings.EqualFold(sortType, "desc")
	}

	// page*limit feeds the $skip stage; reject values whose product would
	// overflow rather than hand the store a negative skip
	if spec.Page > math.MaxInt64/spec.Limit {
		return pageSpec{}, errInvalidPageSpec
	}

	return spec, nil
}

// sortStage always appends _id as a secondary key in the same direction,
// so documents sharing a sort-field value page deterministically.
func sortStage(spec pageSpec) bson.D {
	order := 1
	if spec.Desc {
		order = -1
	}
	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: spec.SortBy, Value: order},
		{Key: "_id", Value: order},
	}}}
}

// aggregator is the one collection method paginate needs; a
// *mongo.Collection satisfies it.
type aggregator interface {
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

// paginate runs the filter stages plus sort/skip/limit against coll and
// counts the total over the same filter stages unbounded. A page past the
// end yields an empty docs slice with the true total, not an error.
func paginate(ctx context.Context, coll aggregator, stages mongo.Pipeline, spec pageSpec) (pageResult, error) {
	result := pageResult{
		Docs:  []bson.M{},
		Page:  spec.Page,
		Limit: spec.Limit,
	}

	countPipeline := append(mongo.Pipeline{}, stages...)
	countPipeline = append(countPipeline, bson.D{{Key: "$count", Value: "total"}})

	countCursor, err := coll.Aggregate(ctx, countPipeline)
	if err != nil {
		return pageResult{}, err
	}
	defer countCursor.Close(ctx)

	var totals []struct {
		Total int64 `bson:"total"`
	}
	if err := countCursor.All(ctx, &totals); err != nil {
		return pageResult{}, err
	}
	if len(totals) > 0 {
		result.Total = totals[0].Total
	}

	pipeline := append(mongo.Pipeline{}, stages...)
	pipeline = append(pipeline,
		sortStage(spec),
		bson.D{{Key: "$skip", Value: (spec.Page - 1) * spec.Limit}},
		bson.D{{Key: "$limit", Value: spec.Limit}},
	)

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return pageResult{}, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &result.Docs); err != nil {
		return pageResult{}, err
	}
	if result.Docs == nil {
		result.Docs = []bson.M{}
	}

	return result, nil
}
