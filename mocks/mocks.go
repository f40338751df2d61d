// Package mocks holds in-memory repositories used by handler and importer tests.
package mocks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"culturalevents/models"
	"culturalevents/utils"
)

/* -------------------- Users -------------------- */

type MockUserRepo struct {
	mu    sync.Mutex
	Users map[primitive.ObjectID]models.User
}

func NewUserRepo() *MockUserRepo {
	return &MockUserRepo{Users: map[primitive.ObjectID]models.User{}}
}

func (m *MockUserRepo) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Users {
		if existing.Username == u.Username {
			return errors.New("dup")
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Favorites == nil {
		u.Favorites = []primitive.ObjectID{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.Users[u.ID] = *u
	return nil
}

func (m *MockUserRepo) ValidateCredentials(ctx context.Context, username, plain string) (models.User, error) {
	u, err := m.GetByUsername(ctx, username)
	if err != nil {
		return models.User{}, models.ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(plain, u.Password) {
		return models.User{}, models.ErrInvalidCredentials
	}
	return u, nil
}

func (m *MockUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepo) GetByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (m *MockUserRepo) GetAll(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.Users))
	for _, u := range m.Users {
		out = append(out, u)
	}
	return out, nil
}

func (m *MockUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.Users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockUserRepo) Update(_ context.Context, id primitive.ObjectID, upd models.UserUpdate) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.IsAdmin != nil {
		u.IsAdmin = *upd.IsAdmin
	}
	m.Users[id] = u
	return u, nil
}

func (m *MockUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Users, id)
	return nil
}

func (m *MockUserRepo) AddFavorite(_ context.Context, userID, venueID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.Favorites = addToSet(u.Favorites, venueID)
	m.Users[userID] = u
	return nil
}

func (m *MockUserRepo) RemoveFavorite(_ context.Context, userID, venueID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.Favorites = pull(u.Favorites, venueID)
	m.Users[userID] = u
	return nil
}

/* -------------------- Venues -------------------- */

type MockVenueRepo struct {
	mu    sync.Mutex
	Items map[primitive.ObjectID]models.Venue
}

func NewVenueRepo() *MockVenueRepo {
	return &MockVenueRepo{Items: map[primitive.ObjectID]models.Venue{}}
}

// Put stores v as-is, assigning an id when missing, and returns it.
func (m *MockVenueRepo) Put(v models.Venue) models.Venue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if v.Events == nil {
		v.Events = []primitive.ObjectID{}
	}
	if v.Likes == nil {
		v.Likes = []primitive.ObjectID{}
	}
	m.Items[v.ID] = v
	return v
}

func (m *MockVenueRepo) GetAll(_ context.Context, f models.VenueFilter) ([]models.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(f.NameContains)
	out := []models.Venue{}
	for _, v := range m.Items {
		if needle != "" && !strings.Contains(strings.ToLower(v.Name), needle) {
			continue
		}
		if f.Region != "" && v.Region != f.Region {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VenueID < out[j].VenueID })
	return out, nil
}

func (m *MockVenueRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Items[id]
	if !ok {
		return models.Venue{}, models.ErrNotFound
	}
	return v, nil
}

// GetByIDs ignores the order of ids, like a $in query does.
func (m *MockVenueRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Venue{}
	for _, id := range ids {
		if v, ok := m.Items[id]; ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VenueID < out[j].VenueID })
	return out, nil
}

func (m *MockVenueRepo) Upsert(_ context.Context, in models.VenueUpsert) (models.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var v models.Venue
	for _, existing := range m.Items {
		if existing.VenueID == in.VenueID {
			v = existing
			break
		}
	}
	if v.ID.IsZero() {
		v = models.Venue{
			ID:      primitive.NewObjectID(),
			VenueID: in.VenueID,
			Events:  []primitive.ObjectID{},
			Likes:   []primitive.ObjectID{},
		}
	}
	lat, lng := in.Latitude, in.Longitude
	v.Name = in.Name
	v.NameC = in.NameC
	v.Latitude = &lat
	v.Longitude = &lng
	v.Region = in.Region
	v.Address = in.Address
	v.LastUpdated = in.UpdatedAt
	m.Items[v.ID] = v
	return v, nil
}

func (m *MockVenueRepo) AddEvent(_ context.Context, venueID, eventID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Items[venueID]
	if !ok {
		return nil
	}
	v.Events = addToSet(v.Events, eventID)
	m.Items[venueID] = v
	return nil
}

func (m *MockVenueRepo) RemoveEvent(_ context.Context, venueID, eventID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Items[venueID]
	if !ok {
		return nil
	}
	v.Events = pull(v.Events, eventID)
	m.Items[venueID] = v
	return nil
}

func (m *MockVenueRepo) ToggleLike(_ context.Context, id, userID primitive.ObjectID) (models.LikeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Items[id]
	if !ok {
		return models.LikeResult{}, models.ErrNotFound
	}
	var liked bool
	v.Likes, liked = toggle(v.Likes, userID)
	m.Items[id] = v
	return models.LikeResult{Likes: len(v.Likes), IsLiked: liked}, nil
}

func (m *MockVenueRepo) PullUserLikes(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.Items {
		v.Likes = pull(v.Likes, userID)
		m.Items[id] = v
	}
	return nil
}

/* -------------------- Events -------------------- */

type MockEventRepo struct {
	mu    sync.Mutex
	Items map[primitive.ObjectID]models.Event
}

func NewEventRepo() *MockEventRepo {
	return &MockEventRepo{Items: map[primitive.ObjectID]models.Event{}}
}

// Put stores e as-is, assigning an id when missing, and returns it.
func (m *MockEventRepo) Put(e models.Event) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Likes == nil {
		e.Likes = []primitive.ObjectID{}
	}
	m.Items[e.ID] = e
	return e
}

func (m *MockEventRepo) GetAll(_ context.Context) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, 0, len(m.Items))
	for _, e := range m.Items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (m *MockEventRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Items[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	return e, nil
}

func (m *MockEventRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Event{}
	for _, id := range ids {
		if e, ok := m.Items[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventRepo) Create(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Items {
		if existing.EventID == e.EventID {
			return errors.New("dup")
		}
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Likes == nil {
		e.Likes = []primitive.ObjectID{}
	}
	if e.LastUpdated.IsZero() {
		e.LastUpdated = time.Now().UTC()
	}
	m.Items[e.ID] = *e
	return nil
}

func (m *MockEventRepo) Update(_ context.Context, id primitive.ObjectID, upd models.EventUpdate) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Items[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	assign(&e.Title, upd.Title)
	assign(&e.TitleC, upd.TitleC)
	assign(&e.Description, upd.Description)
	assign(&e.Presenter, upd.Presenter)
	assign(&e.DateTime, upd.DateTime)
	assign(&e.Category, upd.Category)
	assign(&e.Price, upd.Price)
	assign(&e.URL, upd.URL)
	if upd.Venue != nil {
		e.Venue = *upd.Venue
	}
	e.LastUpdated = time.Now().UTC()
	m.Items[id] = e
	return e, nil
}

func (m *MockEventRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Items, id)
	return nil
}

func (m *MockEventRepo) Upsert(_ context.Context, in models.EventUpsert) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var e models.Event
	for _, existing := range m.Items {
		if existing.EventID == in.EventID {
			e = existing
			break
		}
	}
	if e.ID.IsZero() {
		e = models.Event{ID: primitive.NewObjectID(), EventID: in.EventID, Likes: []primitive.ObjectID{}}
	}
	e.Title = in.Title
	e.TitleC = in.TitleC
	e.Venue = in.Venue
	e.Description = in.Description
	e.DateTime = in.DateTime
	e.Presenter = in.Presenter
	e.LastUpdated = in.UpdatedAt
	m.Items[e.ID] = e
	return e, nil
}

func (m *MockEventRepo) ToggleLike(_ context.Context, id, userID primitive.ObjectID) (models.LikeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Items[id]
	if !ok {
		return models.LikeResult{}, models.ErrNotFound
	}
	var liked bool
	e.Likes, liked = toggle(e.Likes, userID)
	m.Items[id] = e
	return models.LikeResult{Likes: len(e.Likes), IsLiked: liked}, nil
}

func (m *MockEventRepo) PullUserLikes(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.Items {
		e.Likes = pull(e.Likes, userID)
		m.Items[id] = e
	}
	return nil
}

/* -------------------- Comments -------------------- */

type MockCommentRepo struct {
	mu    sync.Mutex
	Items []models.Comment
}

func NewCommentRepo() *MockCommentRepo { return &MockCommentRepo{} }

func (m *MockCommentRepo) Create(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.Items = append(m.Items, *c)
	return nil
}

func (m *MockCommentRepo) ListByVenue(_ context.Context, venueID primitive.ObjectID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for i := len(m.Items) - 1; i >= 0; i-- {
		if m.Items[i].Venue == venueID {
			out = append(out, m.Items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockCommentRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Items[:0]
	for _, c := range m.Items {
		if c.User != userID {
			kept = append(kept, c)
		}
	}
	m.Items = kept
	return nil
}

/* -------------------- Import runs -------------------- */

type MockImportRunRepo struct {
	mu   sync.Mutex
	Runs []models.ImportRun
}

func (m *MockImportRunRepo) Record(_ context.Context, r *models.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.Runs) + 1)
	m.Runs = append(m.Runs, *r)
	return nil
}

func (m *MockImportRunRepo) Recent(_ context.Context, limit int) ([]models.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ImportRun{}
	for i := len(m.Runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.Runs[i])
	}
	return out, nil
}

/* -------------------- helpers -------------------- */

func addToSet(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, x := range set {
		if x == id {
			return set
		}
	}
	return append(set, id)
}

func pull(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := []primitive.ObjectID{}
	for _, x := range set {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func toggle(set []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	for _, x := range set {
		if x == id {
			return pull(set, id), false
		}
	}
	return append(set, id), true
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
