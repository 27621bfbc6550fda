package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teambingo/internal/model"
)

type ReportRepo interface {
	Save(ctx context.Context, report *model.GameReport) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.GameReport, error)
}

type reportRepo struct {
	collection *mongo.Collection
}

func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		collection: db.Collection("reports"),
	}
}

// Save upserts the report for a session; regenerating replaces the old one
func (r *reportRepo) Save(ctx context.Context, report *model.GameReport) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"sessionId": report.SessionID}, report, opts)
	return err
}

func (r *reportRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.GameReport, error) {
	var report model.GameReport
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}
