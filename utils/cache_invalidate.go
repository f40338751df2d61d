package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	VenuesCachePrefix = "cache:venues:"
	EventsCachePrefix = "cache:events:"
)

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

// PurgeVenues drops every cached venue list and venue item.
func (ci *CacheInvalidator) PurgeVenues(ctx context.Context) {
	ci.purge(ctx, VenuesCachePrefix+"*")
}

// PurgeEvents drops every cached event list and event item.
func (ci *CacheInvalidator) PurgeEvents(ctx context.Context) {
	ci.purge(ctx, EventsCachePrefix+"*")
}

// PurgeCatalog drops both. Venue responses embed events and vice versa,
// so most writes need this.
func (ci *CacheInvalidator) PurgeCatalog(ctx context.Context) {
	ci.PurgeVenues(ctx)
	ci.PurgeEvents(ctx)
}

func (ci *CacheInvalidator) purge(ctx context.Context, pattern string) {
	iter := ci.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = ci.rdb.Del(ctx, iter.Val()).Err()
	}
}
