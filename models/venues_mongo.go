package models

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoVenueRepo struct {
	col *mongo.Collection
}

func NewMongoVenueRepository(col *mongo.Collection) VenueRepository {
	return &mongoVenueRepo{col: col}
}

func (r *mongoVenueRepo) GetAll(ctx context.Context, f VenueFilter) ([]Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{}
	if f.NameContains != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameContains), Options: "i"}
	}
	if f.Region != "" {
		filter["region"] = f.Region
	}
	return findVenues(ctx, r.col, filter)
}

func (r *mongoVenueRepo) GetByID(ctx context.Context, id primitive.ObjectID) (Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var v Venue
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return Venue{}, notFound(err)
	}
	return v, nil
}

func (r *mongoVenueRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Venue, error) {
	if len(ids) == 0 {
		return []Venue{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return findVenues(ctx, r.col, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoVenueRepo) Upsert(ctx context.Context, in VenueUpsert) (Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":        in.Name,
			"nameC":       in.NameC,
			"latitude":    in.Latitude,
			"longitude":   in.Longitude,
			"region":      in.Region,
			"address":     in.Address,
			"lastUpdated": in.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"events": []primitive.ObjectID{},
			"likes":  []primitive.ObjectID{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var v Venue
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"venueId": in.VenueID}, update, opts).Decode(&v); err != nil {
		return Venue{}, err
	}
	return v, nil
}

func (r *mongoVenueRepo) AddEvent(ctx context.Context, venueID, eventID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.col.UpdateByID(ctx, venueID, bson.M{"$addToSet": bson.M{"events": eventID}})
	return err
}

func (r *mongoVenueRepo) RemoveEvent(ctx context.Context, venueID, eventID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.col.UpdateByID(ctx, venueID, bson.M{"$pull": bson.M{"events": eventID}})
	return err
}

func (r *mongoVenueRepo) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (LikeResult, error) {
	return toggleLike(ctx, r.col, id, userID)
}

func (r *mongoVenueRepo) PullUserLikes(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.col.UpdateMany(ctx, bson.M{"likes": userID}, bson.M{"$pull": bson.M{"likes": userID}})
	return err
}

func findVenues(ctx context.Context, col *mongo.Collection, filter bson.M) ([]Venue, error) {
	cur, err := col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Venue{}
	for cur.Next(ctx) {
		var v Venue
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, cur.Err()
}
