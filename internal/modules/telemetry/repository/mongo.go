package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"invernadero-server/internal/modules/telemetry/query"
	"invernadero-server/internal/modules/telemetry/types"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database, collection string) TelemetryRepository {
	return &mongoRepository{collection: db.Collection(collection)}
}

// EnsureMongoIndexes creates the ascending FECHA index used by range reads.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, collection string) error {
	_, err := db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: types.FieldDate, Value: 1}},
	})
	if err != nil {
		return classify("create FECHA index", err, types.ErrStoreWrite)
	}
	return nil
}

func (r *mongoRepository) InsertMany(ctx context.Context, records []types.Record) ([]string, error) {
	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = rec
	}

	res, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return nil, classify("insert many", err, types.ErrStoreWrite)
	}

	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		if oid, ok := id.(bson.ObjectID); ok {
			ids = append(ids, oid.Hex())
			continue
		}
		ids = append(ids, fmt.Sprint(id))
	}
	return ids, nil
}

func (r *mongoRepository) Find(ctx context.Context, dr *query.DateRange) ([]types.Record, error) {
	filter := bson.D{}
	if dr != nil {
		filter = dr.Filter()
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: types.FieldID, Value: 1}}))
	if err != nil {
		return nil, classify("find", err, types.ErrStoreRead)
	}
	defer func() { _ = cursor.Close(ctx) }()

	out := make([]types.Record, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, classify("decode cursor", err, types.ErrStoreRead)
	}
	if out == nil {
		out = make([]types.Record, 0)
	}
	return out, nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	if err := r.collection.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return classify("ping", err, types.ErrStoreRead)
	}
	return nil
}
