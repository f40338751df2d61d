package routes

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"culturalevents/middlewares"
	"culturalevents/models"
	"culturalevents/sessions"
	"culturalevents/utils"
)

// Synchronizer refreshes venues and events from the upstream feeds.
type Synchronizer interface {
	Sync(ctx context.Context)
	SyncAsync()
}

// Deps are the collaborators the handlers need. Runs may be nil when no
// ledger is configured; Redis may be nil to disable caching and quotas.
type Deps struct {
	Users    models.UserRepository
	Venues   models.VenueRepository
	Events   models.EventRepository
	Comments models.CommentRepository
	Runs     models.ImportRunRepository
	Sessions sessions.Store
	Redis    *redis.Client
	Sync     Synchronizer
	Logger   *zap.Logger
}

type Options struct {
	SessionSecret string
	CookieName    string
	CookieSecure  bool
	SessionTTL    time.Duration
	CacheTTL      time.Duration
	CommentQuota  int // per user per day, 0 disables
	LoginRPS      float64
	LoginBurst    int
}

type deps struct {
	Deps
	opts Options
	inv  *utils.CacheInvalidator
}

// RegisterRoutes wires the API onto server. The returned stop func releases
// the rate limiters' background sweepers.
func RegisterRoutes(server *gin.Engine, in Deps, opts Options) (stop func()) {
	if in.Logger == nil {
		in.Logger = zap.NewNop()
	}
	if opts.CookieName == "" {
		opts.CookieName = "sid"
	}
	d := &deps{Deps: in, opts: opts}
	if in.Redis != nil {
		d.inv = utils.NewCacheInvalidator(in.Redis)
	}

	globalLimiter := middlewares.NewRateLimiter("ip", middlewares.LimiterConfig{
		RPS:     20,
		Burst:   40,
		IdleTTL: 3 * time.Minute,
	})
	limiters := []*middlewares.RateLimiter{globalLimiter}
	server.Use(globalLimiter.Middleware(middlewares.ByClientIP))
	server.Use(middlewares.Session(in.Sessions, d.refreshIdentity, opts.CookieName, opts.SessionSecret))
	if in.Redis != nil && opts.CacheTTL > 0 {
		server.Use(middlewares.ResponseCache(in.Redis, opts.CacheTTL))
	}

	api := server.Group("/api")

	// auth
	login := []gin.HandlerFunc{}
	if opts.LoginRPS > 0 {
		loginLimiter := middlewares.NewRateLimiter("login", middlewares.LimiterConfig{
			RPS:     opts.LoginRPS,
			Burst:   opts.LoginBurst,
			IdleTTL: 10 * time.Minute,
		})
		limiters = append(limiters, loginLimiter)
		login = append(login, loginLimiter.Middleware(middlewares.ByClientIP))
	}
	api.POST("/login", append(login, d.login)...)
	api.POST("/logout", d.logout)
	api.GET("/session", d.session)

	// public catalog
	api.GET("/venues", d.getVenues)
	api.GET("/venues/:id", d.getVenue)
	api.GET("/events", d.getEvents)
	api.GET("/events/:id", d.getEvent)
	api.GET("/venues/:id/comments", d.getComments)

	// signed-in users
	auth := api.Group("")
	auth.Use(middlewares.RequireAuth)

	addComment := []gin.HandlerFunc{}
	if in.Redis != nil && opts.CommentQuota > 0 {
		addComment = append(addComment, middlewares.Quota(in.Redis, middlewares.QuotaRule{
			Limit:  opts.CommentQuota,
			Window: 24 * time.Hour,
			KeyFn: func(c *gin.Context) string {
				id, ok := middlewares.CurrentIdentity(c)
				if !ok {
					return ""
				}
				return fmt.Sprintf("quota:comments:%s:day", id.UserID)
			},
		}))
	}
	auth.POST("/venues/:id/comments", append(addComment, d.addComment)...)
	auth.POST("/venues/:id/favorite", d.addFavorite)
	auth.DELETE("/venues/:id/favorite", d.removeFavorite)
	auth.GET("/favorites", d.getFavorites)
	auth.POST("/events/:id/like", d.likeEvent)
	auth.POST("/venues/:id/like", d.likeVenue)

	// admins
	admin := api.Group("")
	admin.Use(middlewares.RequireAdmin)
	admin.GET("/admin/users", d.adminListUsers)
	admin.POST("/admin/users", d.adminCreateUser)
	admin.PUT("/admin/users/:id", d.adminUpdateUser)
	admin.DELETE("/admin/users/:id", d.adminDeleteUser)
	admin.GET("/admin/events", d.adminListEvents)
	admin.POST("/admin/events", d.adminCreateEvent)
	admin.PUT("/admin/events/:id", d.adminUpdateEvent)
	admin.DELETE("/admin/events/:id", d.adminDeleteEvent)
	admin.GET("/admin/import-runs", d.adminImportRuns)
	admin.POST("/import-data", d.importData)

	return func() {
		for _, l := range limiters {
			l.Close()
		}
	}
}

// purgeCatalog drops cached venue and event responses after a write.
func (d *deps) purgeCatalog(c *gin.Context) {
	if d.inv != nil {
		d.inv.PurgeCatalog(c.Request.Context())
	}
}
