package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"culturalevents/models"
	"culturalevents/utils"
)

type geoFilter struct {
	lat, lng, maxKm float64
}

// parseGeoFilter returns nil unless lat, lng and distance are all present.
func parseGeoFilter(c *gin.Context) (*geoFilter, error) {
	latS, lngS, distS := c.Query("lat"), c.Query("lng"), c.Query("distance")
	if latS == "" || lngS == "" || distS == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	lng, err := strconv.ParseFloat(lngS, 64)
	if err != nil {
		return nil, fmt.Errorf("lng: %w", err)
	}
	dist, err := strconv.ParseFloat(distS, 64)
	if err != nil {
		return nil, fmt.Errorf("distance: %w", err)
	}
	return &geoFilter{lat: lat, lng: lng, maxKm: dist}, nil
}

// apply keeps venues within maxKm of the point. Venues without coordinates
// never match.
func (g *geoFilter) apply(venues []models.Venue) []models.Venue {
	out := make([]models.Venue, 0, len(venues))
	for _, v := range venues {
		if !v.HasCoordinates() {
			continue
		}
		if utils.HaversineKm(g.lat, g.lng, *v.Latitude, *v.Longitude) <= g.maxKm {
			out = append(out, v)
		}
	}
	return out
}

// GET /api/venues?search=&area=&lat=&lng=&distance=
func (d *deps) getVenues(c *gin.Context) {
	filter := models.VenueFilter{NameContains: c.Query("search")}
	if area := c.Query("area"); area != "" && area != "all" {
		filter.Region = area
	}
	geo, err := parseGeoFilter(c)
	if err != nil {
		d.internalError(c, "Could not fetch venues", err)
		return
	}

	ctx := c.Request.Context()
	venues, err := d.Venues.GetAll(ctx, filter)
	if err != nil {
		d.internalError(c, "Could not fetch venues", err)
		return
	}
	if geo != nil {
		venues = geo.apply(venues)
	}

	views, err := d.expandVenues(ctx, venues)
	if err != nil {
		d.internalError(c, "Could not fetch venues", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GET /api/venues/:id
func (d *deps) getVenue(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c, "Venue not found")
		return
	}
	ctx := c.Request.Context()
	venue, err := d.Venues.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "Venue not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not fetch venue", err)
		return
	}

	views, err := d.expandVenues(ctx, []models.Venue{venue})
	if err != nil {
		d.internalError(c, "Could not fetch venue", err)
		return
	}
	c.JSON(http.StatusOK, views[0])
}

// POST /api/venues/:id/like
func (d *deps) likeVenue(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		notFound(c, "Venue not found")
		return
	}
	res, err := d.Venues.ToggleLike(c.Request.Context(), id, userID)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "Venue not found")
		return
	}
	if err != nil {
		d.internalError(c, "Could not update like", err)
		return
	}
	d.purgeCatalog(c)
	c.JSON(http.StatusOK, res)
}
