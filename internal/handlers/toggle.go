package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// relationWriter is the slice of a collection the toggle needs; a
// *mongo.Collection satisfies it.
type relationWriter interface {
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// toggleRelation flips an on/off relation row. Delete-first: if a row
// matching filter existed it is removed and the relation is now off;
// otherwise doc is inserted and the relation is on. The collections this
// runs against carry a unique compound index, so a concurrent duplicate
// insert surfaces as a key conflict and is reported as already-on instead
// of creating a second row.
func toggleRelation(ctx context.Context, coll relationWriter, filter bson.M, doc interface{}) (bool, error) {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}
