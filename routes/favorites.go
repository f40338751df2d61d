package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"culturalevents/models"
)

// POST /api/venues/:id/favorite
func (d *deps) addFavorite(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}
	venueID, ok := pathID(c)
	if !ok {
		notFound(c, "Venue not found")
		return
	}
	ctx := c.Request.Context()
	if _, err := d.Venues.GetByID(ctx, venueID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Venue not found")
			return
		}
		d.internalError(c, "Could not add favorite", err)
		return
	}

	err := d.Users.AddFavorite(ctx, userID, venueID)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "User not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not add favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to favorites"})
}

// DELETE /api/venues/:id/favorite
func (d *deps) removeFavorite(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}
	venueID, ok := pathID(c)
	if !ok {
		notFound(c, "Venue not found")
		return
	}
	err := d.Users.RemoveFavorite(c.Request.Context(), userID, venueID)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "User not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not remove favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

// GET /api/favorites
func (d *deps) getFavorites(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user, err := d.Users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "User not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not fetch favorites", err)
		return
	}
	venues, err := d.Venues.GetByIDs(ctx, user.Favorites)
	if err != nil {
		d.internalError(c, "Could not fetch favorites", err)
		return
	}
	c.JSON(http.StatusOK, inFavoriteOrder(user.Favorites, venues))
}

// inFavoriteOrder lists venues in the order they were favorited. Favorites
// whose venue no longer exists are dropped.
func inFavoriteOrder(order []primitive.ObjectID, venues []models.Venue) []models.Venue {
	byID := make(map[primitive.ObjectID]models.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	out := make([]models.Venue, 0, len(order))
	for _, id := range order {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
