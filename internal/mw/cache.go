package mw

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader marks responses served from the cache.
const CacheHeader = "X-Cache"

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

// cacheKey normalises the query so that reordered parameters share an entry.
func cacheKey(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}

// Cache serves repeated GET requests for catalog-style listings from memory.
// Only 2xx responses are stored. A request with "Cache-Control: no-cache"
// bypasses the stored entry and replaces it. A zero duration disables caching.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || duration <= 0 {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		refresh := strings.Contains(c.GetHeader("Cache-Control"), "no-cache")
		if !refresh {
			if v, found := store.Get(key); found {
				replay(c, v.(cachedResponse))
				return
			}
		}

		w := &bodyCacheWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status > 299 {
			return
		}
		headers := w.Header().Clone()
		headers.Del(RequestIDHeader)
		headers.Del(CacheHeader)
		store.Set(key, cachedResponse{
			status:  status,
			headers: headers,
			body:    bytes.Clone(w.body.Bytes()),
		}, duration)
	}
}

// replay writes a stored response. Per-request headers already set by
// earlier middleware are kept.
func replay(c *gin.Context, resp cachedResponse) {
	h := c.Writer.Header()
	for k, v := range resp.headers {
		if _, set := h[k]; !set {
			h[k] = v
		}
	}
	h.Set(CacheHeader, "HIT")
	c.Writer.WriteHeader(resp.status)
	c.Writer.Write(resp.body)
	c.Abort()
}
