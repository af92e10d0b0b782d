package identity

import (
	"context"

	"agent_chat/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type (
	IdentityRepo struct {
		collection *mongo.Collection
	}
)

func NewIdentityRepo(db *mongo.Database) *IdentityRepo {
	return &IdentityRepo{
		collection: db.Collection("identities"),
	}
}

func (r *IdentityRepo) GetByName(ctx context.Context, name string) (*model.Identity, error) {
	filter := bson.M{
		"name": name,
	}

	var id model.Identity
	err := r.collection.FindOne(ctx, filter).Decode(&id)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &id, nil
}

func (r *IdentityRepo) Create(ctx context.Context, identity *model.Identity) error {
	res, err := r.collection.InsertOne(ctx, identity)
	if err != nil {
		return err
	}

	identity.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}
