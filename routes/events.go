package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"culturalevents/models"
)

// GET /api/events
func (d *deps) getEvents(c *gin.Context) {
	ctx := c.Request.Context()
	events, err := d.Events.GetAll(ctx)
	if err != nil {
		d.internalError(c, "Could not fetch events", err)
		return
	}
	views, err := d.expandEvents(ctx, events)
	if err != nil {
		d.internalError(c, "Could not fetch events", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GET /api/events/:id
func (d *deps) getEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c, "Event not found")
		return
	}
	ctx := c.Request.Context()
	event, err := d.Events.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "Event not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not fetch event", err)
		return
	}
	views, err := d.expandEvents(ctx, []models.Event{event})
	if err != nil {
		d.internalError(c, "Could not fetch event", err)
		return
	}
	c.JSON(http.StatusOK, views[0])
}

// POST /api/events/:id/like
func (d *deps) likeEvent(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		notFound(c, "Event not found")
		return
	}
	res, err := d.Events.ToggleLike(c.Request.Context(), id, userID)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "Event not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not update like", err)
		return
	}
	d.purgeCatalog(c)
	c.JSON(http.StatusOK, res)
}
