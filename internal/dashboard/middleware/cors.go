package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// dashboard cors config. The UI is normally served same-origin but browser
// tabs pointed at a LAN address still need the headers. Methods mirror the
// /v1 route table.
var corsConfig = cors.Config{
	AllowAllOrigins: true,
	AllowMethods:    []string{"GET", "POST", "PUT", "DELETE"},
	AllowHeaders: []string{
		"Origin",
		"Content-Type",
		"Authorization",
		"Last-Event-ID",
	},
	ExposeHeaders: []string{"X-Request-ID"},
	MaxAge:        12 * time.Hour,
}

func CORS() gin.HandlerFunc {
	return cors.New(corsConfig)
}
