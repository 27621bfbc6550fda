package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teambingo/internal/model"
)

// RoundRepo persists round results. The log is append-only: results are
// never updated or deleted individually after creation.
type RoundRepo interface {
	Append(ctx context.Context, result *model.RoundResult) error
	GetBySessionID(ctx context.Context, sessionID string) ([]*model.RoundResult, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
}

type roundRepo struct {
	collection *mongo.Collection
}

func NewRoundRepo(db *mongo.Database) RoundRepo {
	return &roundRepo{
		collection: db.Collection("rounds"),
	}
}

func (r *roundRepo) Append(ctx context.Context, result *model.RoundResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	res, err := r.collection.InsertOne(ctx, result)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		result.ID = oid.Hex()
	}
	return nil
}

func (r *roundRepo) GetBySessionID(ctx context.Context, sessionID string) ([]*model.RoundResult, error) {
	opts := options.Find().SetSort(bson.M{"roundNumber": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.RoundResult
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteBySessionID removes a session's history when the session itself
// is deleted by an administrator
func (r *roundRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}
