package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"culturalevents/middlewares"
	"culturalevents/models"
	"culturalevents/sessions"
	"culturalevents/utils"
)

// POST /api/login
func (d *deps) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	ctx := c.Request.Context()
	user, err := d.Users.ValidateCredentials(ctx, req.Username, req.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		d.internalError(c, "Login failed", err)
		return
	}

	// a fresh session id on every login
	if old := middlewares.SessionID(c); old != "" {
		_ = d.Sessions.Destroy(ctx, old)
	}
	identity := sessions.Identity{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}
	sid, err := d.Sessions.Create(ctx, identity)
	if err != nil {
		d.internalError(c, "Login failed", err)
		return
	}
	token, err := utils.SignSessionID(sid, d.opts.SessionSecret, d.opts.SessionTTL)
	if err != nil {
		d.internalError(c, "Login failed", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(d.opts.CookieName, token, int(d.opts.SessionTTL.Seconds()), "/", "", d.opts.CookieSecure, true)

	if d.Sync != nil {
		d.Sync.SyncAsync()
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"username": user.Username,
			"isAdmin":  user.IsAdmin,
			"userId":   identity.UserID,
		},
	})
}

// POST /api/logout
func (d *deps) logout(c *gin.Context) {
	if sid := middlewares.SessionID(c); sid != "" {
		if err := d.Sessions.Destroy(c.Request.Context(), sid); err != nil {
			d.Logger.Warn("could not destroy session", zap.Error(err))
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(d.opts.CookieName, "", -1, "/", "", d.opts.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// GET /api/session
func (d *deps) session(c *gin.Context) {
	id, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"loggedIn": true,
		"username": id.Username,
		"isAdmin":  id.IsAdmin,
	})
}

// refreshIdentity re-reads the account on every authenticated request, so a
// deleted user loses the session and a demoted admin loses admin routes.
func (d *deps) refreshIdentity(ctx context.Context, id sessions.Identity) (sessions.Identity, error) {
	userID, err := primitive.ObjectIDFromHex(id.UserID)
	if err != nil {
		return sessions.Identity{}, sessions.ErrNoSession
	}
	user, err := d.Users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return sessions.Identity{}, sessions.ErrNoSession
	}
	if err != nil {
		return sessions.Identity{}, err
	}
	id.Username = user.Username
	id.IsAdmin = user.IsAdmin
	return id, nil
}
