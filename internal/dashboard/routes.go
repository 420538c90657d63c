package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"

	"github.com/crosswatch/dashd/internal/dashboard/handlers"
	"github.com/crosswatch/dashd/internal/dashboard/middleware"
	"github.com/crosswatch/dashd/internal/version"
)

// Deps are the daemon components the HTTP layer exposes.
type Deps struct {
	Pairs    *handlers.PairsHandler
	Run      *handlers.RunHandler
	Logs     *handlers.LogsHandler
	Insights *handlers.InsightsHandler
	Watch    *handlers.WatchHandler
	Analyzer *handlers.AnalyzerHandler
	Config   *handlers.ConfigHandler
	Status   *handlers.StatusHandler
	Pages    *Pages
}

// RouteConfig carries per-route toggles.
type RouteConfig struct {
	Auth middleware.TokenAuthConfig
}

func SetupRoutes(deps *Deps, routeConfig *RouteConfig) http.Handler {
	r := gin.New()

	rateLimitStore := memory.NewStore()
	rateLimiter := limiter.New(rateLimitStore, limiter.Rate{
		Period: 1 * time.Second,
		Limit:  30,
	})

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.Use(middleware.Gzip())
	r.Use(mgin.NewMiddleware(rateLimiter))

	r.GET("/", IndexHandler)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := r.Group("/v1")
	v1.Use(middleware.TokenAuth(routeConfig.Auth))
	{
		v1.GET("/status", deps.Status.Status)

		v1Pairs := v1.Group("/pairs")
		{
			v1Pairs.GET("", deps.Pairs.List)
			v1Pairs.POST("", deps.Pairs.Create)
			v1Pairs.PUT("/:id", deps.Pairs.Update)
			v1Pairs.POST("/:id/toggle", deps.Pairs.Toggle)
			v1Pairs.POST("/:id/move", deps.Pairs.Move)
			v1Pairs.DELETE("/:id", deps.Pairs.Delete)
		}

		v1Run := v1.Group("/run")
		{
			v1Run.POST("", deps.Run.Trigger)
			v1Run.GET("/summary", deps.Run.Summary)
			v1Run.GET("/events", deps.Run.Events)
		}

		v1Logs := v1.Group("/logs")
		{
			v1Logs.GET("", deps.Logs.Recent)
			v1Logs.GET("/ws", deps.Logs.Live)
		}

		v1Insights := v1.Group("/insights")
		{
			v1Insights.GET("", deps.Insights.Summary)
			v1Insights.GET("/runs", deps.Insights.RecentRuns)
			v1Insights.GET("/totals", deps.Insights.Totals)
		}

		v1.GET("/watch", deps.Watch.NowPlaying)

		v1Analyzer := v1.Group("/analyzer")
		{
			v1Analyzer.GET("/state", deps.Analyzer.State)
			v1Analyzer.GET("/problems", deps.Analyzer.Problems)
			v1Analyzer.POST("/patch", deps.Analyzer.Patch)
			v1Analyzer.GET("/compare", deps.Analyzer.Compare)
		}

		v1Config := v1.Group("/config")
		{
			v1Config.GET("", deps.Config.Get)
			v1Config.POST("", deps.Config.Set)
		}
		v1.GET("/scheduling", deps.Config.Scheduling)

		v1Plex := v1.Group("/plex")
		{
			v1Plex.POST("/pin", deps.Config.PlexNewPin)
			v1Plex.GET("/pin/:id", deps.Config.PlexCheckPin)
			v1Plex.GET("/users", deps.Config.PlexUsers)
			v1Plex.GET("/libraries", deps.Config.PlexLibraries)
			v1Plex.GET("/servers", deps.Config.PlexServers)
			v1Plex.GET("/inspect", deps.Config.PlexInspect)
		}
	}

	if deps.Pages != nil {
		ui := r.Group("/ui")
		ui.Use(middleware.TokenAuth(routeConfig.Auth))
		{
			ui.GET("/logs", deps.Pages.Logs)
			ui.GET("/watch", deps.Pages.Watch)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func IndexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":      version.AppName,
		"version":  version.Version,
		"revision": version.Revision,
		"detail":   version.Detailed(),
	})
}
