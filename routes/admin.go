package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"culturalevents/models"
	"culturalevents/utils"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100

	importTimeout = 2 * time.Minute
)

/* -------------------- Users -------------------- */

// GET /api/admin/users
func (d *deps) adminListUsers(c *gin.Context) {
	users, err := d.Users.GetAll(c.Request.Context())
	if err != nil {
		d.internalError(c, "Could not fetch users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /api/admin/users
func (d *deps) adminCreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		d.internalError(c, "Could not create user", err)
		return
	}
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		d.internalError(c, "Could not create user", err)
		return
	}

	u := models.User{Username: req.Username, Password: hashed, IsAdmin: req.IsAdmin}
	if err := d.Users.Create(c.Request.Context(), &u); err != nil {
		d.internalError(c, "Could not create user", err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// PUT /api/admin/users/:id
func (d *deps) adminUpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c, "User not found")
		return
	}
	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
		IsAdmin  *bool   `json:"isAdmin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		d.internalError(c, "Could not update user", err)
		return
	}

	upd := models.UserUpdate{IsAdmin: req.IsAdmin}
	if req.Username != nil && *req.Username != "" {
		upd.Username = req.Username
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			d.internalError(c, "Could not update user", err)
			return
		}
		upd.Password = &hashed
	}

	u, err := d.Users.Update(c.Request.Context(), id, upd)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "User not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not update user", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /api/admin/users/:id
// Also removes the user's comments and likes.
func (d *deps) adminDeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c, "User not found")
		return
	}
	ctx := c.Request.Context()
	if err := d.Users.Delete(ctx, id); err != nil {
		d.internalError(c, "Could not delete user", err)
		return
	}
	if err := d.Comments.DeleteByUser(ctx, id); err != nil {
		d.internalError(c, "Could not delete user", err)
		return
	}
	if err := d.Venues.PullUserLikes(ctx, id); err != nil {
		d.internalError(c, "Could not delete user", err)
		return
	}
	if err := d.Events.PullUserLikes(ctx, id); err != nil {
		d.internalError(c, "Could not delete user", err)
		return
	}
	d.purgeCatalog(c)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

/* -------------------- Events -------------------- */

// GET /api/admin/events
func (d *deps) adminListEvents(c *gin.Context) {
	d.getEvents(c)
}

type eventInput struct {
	EventID     string `json:"eventId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	TitleC      string `json:"titleC"`
	Venue       string `json:"venue" binding:"required"`
	Description string `json:"description"`
	Presenter   string `json:"presenter"`
	DateTime    string `json:"dateTime"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	URL         string `json:"url"`
}

type eventPatch struct {
	Title       *string `json:"title"`
	TitleC      *string `json:"titleC"`
	Venue       *string `json:"venue"`
	Description *string `json:"description"`
	Presenter   *string `json:"presenter"`
	DateTime    *string `json:"dateTime"`
	Category    *string `json:"category"`
	Price       *string `json:"price"`
	URL         *string `json:"url"`
}

// existingVenue resolves a venue reference from a request body, answering
// 404 when it does not point at a stored venue.
func (d *deps) existingVenue(c *gin.Context, ref string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		notFound(c, "Venue not found")
		return primitive.NilObjectID, false
	}
	if _, err := d.Venues.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Venue not found")
		} else {
			d.internalError(c, "Could not fetch venue", err)
		}
		return primitive.NilObjectID, false
	}
	return id, true
}

// POST /api/admin/events
func (d *deps) adminCreateEvent(c *gin.Context) {
	var req eventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		d.internalError(c, "Could not create event", err)
		return
	}
	venueID, ok := d.existingVenue(c, req.Venue)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	e := models.Event{
		EventID:     req.EventID,
		Title:       req.Title,
		TitleC:      req.TitleC,
		Venue:       venueID,
		Description: req.Description,
		Presenter:   req.Presenter,
		DateTime:    req.DateTime,
		Category:    req.Category,
		Price:       req.Price,
		URL:         req.URL,
	}
	if err := d.Events.Create(ctx, &e); err != nil {
		d.internalError(c, "Could not create event", err)
		return
	}
	if err := d.Venues.AddEvent(ctx, venueID, e.ID); err != nil {
		d.internalError(c, "Could not create event", err)
		return
	}
	d.purgeCatalog(c)
	c.JSON(http.StatusCreated, e)
}

// PUT /api/admin/events/:id
func (d *deps) adminUpdateEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c, "Event not found")
		return
	}
	var req eventPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		d.internalError(c, "Could not update event", err)
		return
	}

	ctx := c.Request.Context()
	old, err := d.Events.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "Event not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not update event", err)
		return
	}

	upd := models.EventUpdate{
		Title:       req.Title,
		TitleC:      req.TitleC,
		Description: req.Description,
		Presenter:   req.Presenter,
		DateTime:    req.DateTime,
		Category:    req.Category,
		Price:       req.Price,
		URL:         req.URL,
	}
	if req.Venue != nil {
		venueID, ok := d.existingVenue(c, *req.Venue)
		if !ok {
			return
		}
		upd.Venue = &venueID
	}

	e, err := d.Events.Update(ctx, id, upd)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "Event not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not update event", err)
		return
	}

	if e.Venue != old.Venue {
		if err := d.Venues.RemoveEvent(ctx, old.Venue, e.ID); err != nil {
			d.internalError(c, "Could not update event", err)
			return
		}
		if err := d.Venues.AddEvent(ctx, e.Venue, e.ID); err != nil {
			d.internalError(c, "Could not update event", err)
			return
		}
	}
	d.purgeCatalog(c)
	c.JSON(http.StatusOK, e)
}

// DELETE /api/admin/events/:id
// The event is also unlinked from its venue.
func (d *deps) adminDeleteEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c, "Event not found")
		return
	}
	ctx := c.Request.Context()
	e, err := d.Events.GetByID(ctx, id)
	switch {
	case err == nil:
		if err := d.Venues.RemoveEvent(ctx, e.Venue, e.ID); err != nil {
			d.internalError(c, "Could not delete event", err)
			return
		}
	case !errors.Is(err, models.ErrNotFound):
		d.internalError(c, "Could not delete event", err)
		return
	}

	if err := d.Events.Delete(ctx, id); err != nil {
		d.internalError(c, "Could not delete event", err)
		return
	}
	d.purgeCatalog(c)
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

/* -------------------- Import -------------------- */

// POST /api/import-data
// Failures are logged by the synchronizer and never reported here.
func (d *deps) importData(c *gin.Context) {
	if d.Sync != nil {
		// the run outlives a dropped admin connection; other callers may share it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), importTimeout)
		defer cancel()
		d.Sync.Sync(ctx)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Data imported successfully"})
}

// GET /api/admin/import-runs?limit=
func (d *deps) adminImportRuns(c *gin.Context) {
	if d.Runs == nil {
		c.JSON(http.StatusOK, []models.ImportRun{})
		return
	}
	limit := defaultRunsLimit
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = min(n, maxRunsLimit)
		} else {
			d.Logger.Debug("ignoring bad limit", zap.String("limit", s))
		}
	}
	runs, err := d.Runs.Recent(c.Request.Context(), limit)
	if err != nil {
		d.internalError(c, "Could not fetch import runs", err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
