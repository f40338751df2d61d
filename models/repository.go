package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ===== Users =====
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username  string               `bson:"username" json:"username"`
	Password  string               `bson:"password" json:"-"` // bcrypt hash
	IsAdmin   bool                 `bson:"isAdmin" json:"isAdmin"`
	Favorites []primitive.ObjectID `bson:"favorites" json:"favorites"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}

// UserUpdate is the allow-list of fields an admin may change. Nil means keep.
type UserUpdate struct {
	Username *string
	Password *string // already hashed
	IsAdmin  *bool
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	ValidateCredentials(ctx context.Context, username, plain string) (User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]User, error)
	Update(ctx context.Context, id primitive.ObjectID, upd UserUpdate) (User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddFavorite(ctx context.Context, userID, venueID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, userID, venueID primitive.ObjectID) error
}

// ===== Venues =====
type Venue struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	VenueID     string               `bson:"venueId" json:"venueId"`
	Name        string               `bson:"name" json:"name"`
	NameC       string               `bson:"nameC,omitempty" json:"nameC,omitempty"`
	Latitude    *float64             `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   *float64             `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Region      string               `bson:"region,omitempty" json:"region,omitempty"`
	Address     string               `bson:"address,omitempty" json:"address,omitempty"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Events      []primitive.ObjectID `bson:"events" json:"events"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	LastUpdated time.Time            `bson:"lastUpdated" json:"lastUpdated"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (v Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// VenueFilter narrows GetAll. Empty fields do not filter.
type VenueFilter struct {
	NameContains string
	Region       string
}

// VenueUpsert carries the fields the importer owns, keyed by VenueID.
type VenueUpsert struct {
	VenueID   string
	Name      string
	NameC     string
	Latitude  float64
	Longitude float64
	Region    string
	Address   string
	UpdatedAt time.Time
}

type VenueRepository interface {
	GetAll(ctx context.Context, f VenueFilter) ([]Venue, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (Venue, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Venue, error)
	Upsert(ctx context.Context, v VenueUpsert) (Venue, error)
	AddEvent(ctx context.Context, venueID, eventID primitive.ObjectID) error
	RemoveEvent(ctx context.Context, venueID, eventID primitive.ObjectID) error
	ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (LikeResult, error)
	PullUserLikes(ctx context.Context, userID primitive.ObjectID) error
}

// ===== Events =====
type Event struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	EventID     string               `bson:"eventId" json:"eventId"`
	Title       string               `bson:"title" json:"title"`
	TitleC      string               `bson:"titleC,omitempty" json:"titleC,omitempty"`
	Venue       primitive.ObjectID   `bson:"venue" json:"venue"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Presenter   string               `bson:"presenter,omitempty" json:"presenter,omitempty"`
	DateTime    string               `bson:"dateTime,omitempty" json:"dateTime,omitempty"`
	Category    string               `bson:"category,omitempty" json:"category,omitempty"`
	Price       string               `bson:"price,omitempty" json:"price,omitempty"`
	URL         string               `bson:"url,omitempty" json:"url,omitempty"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	LastUpdated time.Time            `bson:"lastUpdated" json:"lastUpdated"`
}

// EventUpdate is the allow-list for admin edits. Nil means keep.
type EventUpdate struct {
	Title       *string
	TitleC      *string
	Venue       *primitive.ObjectID
	Description *string
	Presenter   *string
	DateTime    *string
	Category    *string
	Price       *string
	URL         *string
}

// EventUpsert carries the fields the importer owns, keyed by EventID.
type EventUpsert struct {
	EventID     string
	Title       string
	TitleC      string
	Venue       primitive.ObjectID
	Description string
	DateTime    string
	Presenter   string
	UpdatedAt   time.Time
}

type EventRepository interface {
	GetAll(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (Event, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Event, error)
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, id primitive.ObjectID, upd EventUpdate) (Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Upsert(ctx context.Context, e EventUpsert) (Event, error)
	ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (LikeResult, error)
	PullUserLikes(ctx context.Context, userID primitive.ObjectID) error
}

// LikeResult is the state of a liked-by set after a toggle.
type LikeResult struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}

// ===== Comments =====
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Venue     primitive.ObjectID `bson:"venue" json:"venue"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	ListByVenue(ctx context.Context, venueID primitive.ObjectID) ([]Comment, error) // newest first
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// ===== Import runs (Postgres) =====
type ImportRun struct {
	ID             int64     `json:"id"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	VenuesUpserted int       `json:"venuesUpserted"`
	VenuesSkipped  int       `json:"venuesSkipped"`
	EventsUpserted int       `json:"eventsUpserted"`
	EventsSkipped  int       `json:"eventsSkipped"`
	Error          string    `json:"error,omitempty"`
}

type ImportRunRepository interface {
	Record(ctx context.Context, r *ImportRun) error
	Recent(ctx context.Context, limit int) ([]ImportRun, error)
}
