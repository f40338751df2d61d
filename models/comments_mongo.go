package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCommentRepo struct {
	col *mongo.Collection
}

func NewMongoCommentRepository(col *mongo.Collection) CommentRepository {
	return &mongoCommentRepo{col: col}
}

func (r *mongoCommentRepo) Create(ctx context.Context, c *Comment) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *mongoCommentRepo) ListByVenue(ctx context.Context, venueID primitive.ObjectID) ([]Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"venue": venueID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Comment{}
	for cur.Next(ctx) {
		var c Comment
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}

func (r *mongoCommentRepo) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.col.DeleteMany(ctx, bson.M{"user": userID})
	return err
}
