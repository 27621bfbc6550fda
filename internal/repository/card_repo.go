package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"teambingo/internal/model"
)

type CardRepo interface {
	Create(ctx context.Context, pack *model.CardPack) error
	GetByID(ctx context.Context, id string) (*model.CardPack, error)
	List(ctx context.Context) ([]*model.CardPack, error)
	Delete(ctx context.Context, id string) error
}

type cardRepo struct {
	collection *mongo.Collection
}

func NewCardRepo(db *mongo.Database) CardRepo {
	return &cardRepo{
		collection: db.Collection("cardpacks"),
	}
}

func (r *cardRepo) Create(ctx context.Context, pack *model.CardPack) error {
	_, err := r.collection.InsertOne(ctx, pack)
	return err
}

func (r *cardRepo) GetByID(ctx context.Context, id string) (*model.CardPack, error) {
	var pack model.CardPack
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pack)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &pack, nil
}

func (r *cardRepo) List(ctx context.Context) ([]*model.CardPack, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packs []*model.CardPack
	if err = cursor.All(ctx, &packs); err != nil {
		return nil, err
	}
	return packs, nil
}

func (r *cardRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
