package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaContextKey = "response_meta"

	metaCacheHit       = "cache_hit"
	metaProcessingTime = "processing_time_ms"
)

// WithResponseMeta gives each request a meta map that handlers fill and
// response.JSON serialises.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := map[string]interface{}{}
		c.Set(metaContextKey, meta)
		c.Next()
		if _, ok := meta[metaProcessingTime]; !ok {
			meta[metaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit marks whether the payload came from Redis.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)[metaCacheHit] = hit
}

// ExtractMeta returns the request's meta map, or nil outside WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(metaContextKey)
	if !ok {
		return nil
	}
	meta, _ := raw.(map[string]interface{})
	return meta
}

func metaFor(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := map[string]interface{}{}
	if c != nil {
		c.Set(metaContextKey, meta)
	}
	return meta
}
