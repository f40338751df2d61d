package middlewares

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"culturalevents/utils"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// keeps redis keys short
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKeyFrom returns the redis key and its kind for cacheable requests.
// Only the public catalog reads are cached; anything per-user returns "".
func CacheKeyFrom(c *gin.Context) (string, string) {
	method := c.Request.Method
	path := c.FullPath()
	rawq := c.Request.URL.RawQuery

	if method != "GET" || path == "" {
		return "", ""
	}

	switch path {
	case "/api/venues":
		return utils.VenuesCachePrefix + "list:" + sha1Hex(rawq), "list"
	case "/api/venues/:id":
		return utils.VenuesCachePrefix + "item:" + sha1Hex(c.Param("id")), "item"
	case "/api/events":
		return utils.EventsCachePrefix + "list:" + sha1Hex(rawq), "list"
	case "/api/events/:id":
		return utils.EventsCachePrefix + "item:" + sha1Hex(c.Param("id")), "item"
	default:
		return "", ""
	}
}

func ResponseCache(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, _ := CacheKeyFrom(c)
		if key == "" {
			c.Next()
			return
		}

		if b, err := rdb.Get(context.Background(), key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		}

		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw
		c.Writer.Header().Set("X-Cache", "MISS")

		c.Next()

		// 2xx only
		if bw.Status() >= 200 && bw.Status() < 300 {
			header := map[string][]string{}
			for k, v := range c.Writer.Header() {
				if k == "X-Cache" {
					continue
				}
				header[k] = v
			}
			item := cachedBody{
				Status: bw.Status(),
				Header: header,
				Body:   buf.Bytes(),
			}

			var o bytes.Buffer
			if err := gob.NewEncoder(&o).Encode(item); err == nil {
				_ = rdb.Set(context.Background(), key, o.Bytes(), ttl).Err()
			}
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
