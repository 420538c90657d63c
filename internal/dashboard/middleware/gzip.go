package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Event streams must not be buffered by the compressor, and the health
// probe is too small to bother.
var excludedPaths = []string{
	"/healthz",
	"/v1/run/events",
	"/v1/logs/ws",
}

func Gzip() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths(excludedPaths),
	)
}
