package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache holds short-lived copies of GET responses. Every flush bumps
// a generation so a response computed before the flush is never stored
// after it.
type ResponseCache struct {
	store      *cache.Cache
	ttl        time.Duration
	mu         sync.Mutex
	generation uint64
}

// NewResponseCache creates a cache whose entries live for ttl. A
// non-positive ttl disables caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		store: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Len reports how many responses are cached.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

// Cache is a middleware for short-lived in-memory caching of GET responses.
func (rc *ResponseCache) Cache() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc.ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		rc.mu.Lock()
		generation := rc.generation
		rc.mu.Unlock()

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() < 200 || blw.Status() >= 300 || blw.Header().Get("Cache-Control") == "no-store" {
			return
		}
		response := cachedResponse{
			status: blw.Status(),
			// Make a copy of the header map.
			headers: blw.Header().Clone(),
			body:    blw.body.Bytes(),
		}

		rc.mu.Lock()
		defer rc.mu.Unlock()
		if rc.generation == generation {
			rc.store.Set(key, response, rc.ttl)
		}
	}
}

// Flush drops every cached response.
func (rc *ResponseCache) Flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.generation++
	rc.store.Flush()
}

// Invalidate flushes the cache after any successful mutating request, so
// reads observe the write that just happened.
func (rc *ResponseCache) Invalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rc.Flush()
		}
	}
}
