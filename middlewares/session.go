package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"culturalevents/sessions"
	"culturalevents/utils"
)

const identityKey = "identity"

// IdentityRefresher reloads the account behind a session so role changes and
// deletions apply to sessions that are already open. It returns
// sessions.ErrNoSession when the account is gone.
type IdentityRefresher func(ctx context.Context, id sessions.Identity) (sessions.Identity, error)

// Session resolves the signed session cookie into a sessions.Identity and
// stores it on the gin context. Anonymous callers pass through untouched.
// refresh may be nil, in which case the stored identity is trusted as is.
func Session(store sessions.Store, refresh IdentityRefresher, cookieName, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		sid, err := utils.VerifySessionToken(token, secret)
		if err != nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		id, err := store.Get(ctx, sid)
		if err != nil {
			c.Next()
			return
		}
		if refresh != nil {
			id, err = refresh(ctx, id)
			if errors.Is(err, sessions.ErrNoSession) {
				_ = store.Destroy(ctx, sid)
			}
			if err != nil {
				c.Next()
				return
			}
		}
		c.Set(identityKey, id)
		c.Set("sid", sid)
		c.Next()
	}
}

// CurrentIdentity returns the caller's identity when the request is authenticated.
func CurrentIdentity(c *gin.Context) (sessions.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return sessions.Identity{}, false
	}
	id, ok := v.(sessions.Identity)
	return id, ok
}

// SessionID returns the server-side session id bound to the request, if any.
func SessionID(c *gin.Context) string {
	return c.GetString("sid")
}

func RequireAuth(c *gin.Context) {
	if _, ok := CurrentIdentity(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.Next()
}

// RequireAdmin only looks at the admin flag, so anonymous callers get 403 as well.
func RequireAdmin(c *gin.Context) {
	id, _ := CurrentIdentity(c)
	if !id.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
		return
	}
	c.Next()
}
