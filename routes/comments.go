package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"culturalevents/models"
)

// GET /api/venues/:id/comments
func (d *deps) getComments(c *gin.Context) {
	venueID, ok := pathID(c)
	if !ok {
		notFound(c, "Venue not found")
		return
	}
	ctx := c.Request.Context()
	comments, err := d.Comments.ListByVenue(ctx, venueID)
	if err != nil {
		d.internalError(c, "Could not fetch comments", err)
		return
	}

	seen := map[primitive.ObjectID]bool{}
	var userIDs []primitive.ObjectID
	for _, cm := range comments {
		if !seen[cm.User] {
			seen[cm.User] = true
			userIDs = append(userIDs, cm.User)
		}
	}
	users, err := d.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		d.internalError(c, "Could not fetch comments", err)
		return
	}
	authors := make(map[primitive.ObjectID]*commentAuthor, len(users))
	for _, u := range users {
		authors[u.ID] = &commentAuthor{ID: u.ID, Username: u.Username}
	}

	out := make([]commentView, 0, len(comments))
	for _, cm := range comments {
		out = append(out, newCommentView(cm, authors[cm.User]))
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/venues/:id/comments
func (d *deps) addComment(c *gin.Context) {
	identity, userID, ok := caller(c)
	if !ok {
		return
	}
	venueID, ok := pathID(c)
	if !ok {
		notFound(c, "Venue not found")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		d.internalError(c, "Could not add comment", err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		d.internalError(c, "Could not add comment", errors.New("empty comment"))
		return
	}

	ctx := c.Request.Context()
	if _, err := d.Venues.GetByID(ctx, venueID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Venue not found")
			return
		}
		d.internalError(c, "Could not add comment", err)
		return
	}

	cm := models.Comment{Venue: venueID, User: userID, Content: content}
	if err := d.Comments.Create(ctx, &cm); err != nil {
		d.internalError(c, "Could not add comment", err)
		return
	}
	c.JSON(http.StatusCreated, newCommentView(cm, &commentAuthor{ID: userID, Username: identity.Username}))
}
