package routes

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"culturalevents/models"
)

// venueView is a venue with its events expanded in place of their ids.
type venueView struct {
	models.Venue
	Events []models.Event `json:"events"`
}

// eventView is an event with its owning venue expanded. Venue is null when
// the venue no longer exists.
type eventView struct {
	models.Event
	Venue *models.Venue `json:"venue"`
}

type commentAuthor struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
}

type commentView struct {
	ID        primitive.ObjectID `json:"_id"`
	Venue     primitive.ObjectID `json:"venue"`
	User      *commentAuthor     `json:"user"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
}

func newCommentView(cm models.Comment, author *commentAuthor) commentView {
	return commentView{
		ID:        cm.ID,
		Venue:     cm.Venue,
		User:      author,
		Content:   cm.Content,
		CreatedAt: cm.CreatedAt,
	}
}

func (d *deps) expandVenues(ctx context.Context, venues []models.Venue) ([]venueView, error) {
	var ids []primitive.ObjectID
	for _, v := range venues {
		ids = append(ids, v.Events...)
	}
	events, err := d.Events.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	out := make([]venueView, 0, len(venues))
	for _, v := range venues {
		view := venueView{Venue: v, Events: []models.Event{}}
		for _, id := range v.Events {
			if e, ok := byID[id]; ok {
				view.Events = append(view.Events, e)
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func (d *deps) expandEvents(ctx context.Context, events []models.Event) ([]eventView, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, e := range events {
		if !seen[e.Venue] {
			seen[e.Venue] = true
			ids = append(ids, e.Venue)
		}
	}
	venues, err := d.Venues.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}

	out := make([]eventView, 0, len(events))
	for _, e := range events {
		view := eventView{Event: e}
		if v, ok := byID[e.Venue]; ok {
			view.Venue = &v
		}
		out = append(out, view)
	}
	return out, nil
}
