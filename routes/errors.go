package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"culturalevents/middlewares"
	"culturalevents/sessions"
)

// internalError logs err and answers with a generic 500.
func (d *deps) internalError(c *gin.Context, msg string, err error) {
	d.Logger.Error(msg, zap.Error(err), zap.String("route", c.FullPath()))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
}

// pathID parses the :id parameter. A malformed id can never match a
// document, so callers treat false as not found.
func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	return id, err == nil
}

// caller returns the signed-in identity and its user id. Routes using it sit
// behind RequireAuth; a session carrying an unusable id is treated as anonymous.
func caller(c *gin.Context) (sessions.Identity, primitive.ObjectID, bool) {
	id, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return sessions.Identity{}, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(id.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return sessions.Identity{}, primitive.NilObjectID, false
	}
	return id, userID, true
}
