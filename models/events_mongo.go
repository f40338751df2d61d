package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

type mongoEventRepo struct {
	col *mongo.Collection
}

func NewMongoEventRepository(col *mongo.Collection) EventRepository {
	return &mongoEventRepo{col: col}
}

func (r *mongoEventRepo) GetAll(ctx context.Context) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return findEvents(ctx, r.col, bson.M{})
}

func (r *mongoEventRepo) GetByID(ctx context.Context, id primitive.ObjectID) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var e Event
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return Event{}, notFound(err)
	}
	return e, nil
}

func (r *mongoEventRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Event, error) {
	if len(ids) == 0 {
		return []Event{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return findEvents(ctx, r.col, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoEventRepo) Create(ctx context.Context, e *Event) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Likes == nil {
		e.Likes = []primitive.ObjectID{}
	}
	if e.LastUpdated.IsZero() {
		e.LastUpdated = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *mongoEventRepo) Update(ctx context.Context, id primitive.ObjectID, upd EventUpdate) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{"lastUpdated": time.Now().UTC()}
	setIf(set, "title", upd.Title)
	setIf(set, "titleC", upd.TitleC)
	setIf(set, "description", upd.Description)
	setIf(set, "presenter", upd.Presenter)
	setIf(set, "dateTime", upd.DateTime)
	setIf(set, "category", upd.Category)
	setIf(set, "price", upd.Price)
	setIf(set, "url", upd.URL)
	if upd.Venue != nil {
		set["venue"] = *upd.Venue
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e Event
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&e); err != nil {
		return Event{}, notFound(err)
	}
	return e, nil
}

func (r *mongoEventRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *mongoEventRepo) Upsert(ctx context.Context, in EventUpsert) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"title":       in.Title,
			"titleC":      in.TitleC,
			"venue":       in.Venue,
			"description": in.Description,
			"dateTime":    in.DateTime,
			"presenter":   in.Presenter,
			"lastUpdated": in.UpdatedAt,
		},
		"$setOnInsert": bson.M{"likes": []primitive.ObjectID{}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var e Event
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"eventId": in.EventID}, update, opts).Decode(&e); err != nil {
		return Event{}, err
	}
	return e, nil
}

func (r *mongoEventRepo) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (LikeResult, error) {
	return toggleLike(ctx, r.col, id, userID)
}

func (r *mongoEventRepo) PullUserLikes(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.col.UpdateMany(ctx, bson.M{"likes": userID}, bson.M{"$pull": bson.M{"likes": userID}})
	return err
}

func findEvents(ctx context.Context, col *mongo.Collection, filter bson.M) ([]Event, error) {
	cur, err := col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Event{}
	for cur.Next(ctx) {
		var e Event
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

// toggleLike is shared by venues and events: both keep a "likes" set of user ids.
// The membership read and the write are separate round trips.
func toggleLike(ctx context.Context, col *mongo.Collection, id, userID primitive.ObjectID) (LikeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc struct {
		Likes []primitive.ObjectID `bson:"likes"`
	}
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return LikeResult{}, notFound(err)
	}

	liked := true
	op := "$addToSet"
	for _, u := range doc.Likes {
		if u == userID {
			liked = false
			op = "$pull"
			break
		}
	}

	var after struct {
		Likes []primitive.ObjectID `bson:"likes"`
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{op: bson.M{"likes": userID}}, opts).Decode(&after); err != nil {
		return LikeResult{}, notFound(err)
	}
	return LikeResult{Likes: len(after.Likes), IsLiked: liked}, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func setIf(set bson.M, key string, v *string) {
	if v != nil {
		set[key] = *v
	}
}
