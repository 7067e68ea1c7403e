package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheHeader reports whether a GET was answered from the response cache.
const CacheHeader = "X-Cache"

// ResponseCache is the slice of the cache service the GET cache needs.
type ResponseCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheGET serves anonymous GET requests from cache, keyed by prefix plus the request URI.
// Authenticated callers bypass it so editors never see stale listings.
func CacheGET(cache ResponseCache, prefix string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cache == nil || !cache.Enabled() || c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		key := prefix + c.Request.URL.RequestURI()
		var hit cachedResponse
		if ok, err := cache.Get(c.Request.Context(), key, &hit); err == nil && ok {
			c.Header(CacheHeader, "HIT")
			c.Data(hit.Status, hit.ContentType, hit.Body)
			c.Abort()
			return
		}

		c.Header(CacheHeader, "MISS")
		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		if recorder.Status() != http.StatusOK {
			return
		}
		_ = cache.Set(c.Request.Context(), key, cachedResponse{
			Status:      recorder.Status(),
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.buf.Bytes(),
		}, ttl)
	}
}
