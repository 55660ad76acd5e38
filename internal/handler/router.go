package handler

import (
	"net/http"
	"strings"

	"valuescout/internal/config"
	"valuescout/internal/logging"
	"valuescout/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// RouterDeps collects what the HTTP layer needs
type RouterDeps struct {
	Config   *config.Config
	Scout    *service.Scout
	Missions *service.MissionService
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	Build    BuildInfo
	// Health reports dependency status for /health. May be nil.
	Health func() map[string]any
}

// NewRouter wires middleware and API routes onto a new gin engine
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := logging.OrNop(deps.Logger)
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	origins := splitOrigins(cfg.Server.AllowedOrigins)
	if len(origins) == 0 || origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", requestIDHeader, adminPasscodeHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":     "healthy",
			"service":    "valuescout",
			"version":    deps.Build.Version,
			"build_time": deps.Build.BuildTime,
			"git_commit": deps.Build.GitCommit,
		}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    deps.Build.Version,
			"build_time": deps.Build.BuildTime,
			"git_commit": deps.Build.GitCommit,
		})
	})

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	scoutHandler := NewScoutHandler(deps.Scout)
	missionHandler := NewMissionHandler(deps.Missions)
	adminHandler := NewAdminHandler(deps.Missions, cfg.Admin.Passcode)
	limiter := NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/regions/resolve", scoutHandler.ResolveRegion)

		limited := apiV1.Group("", limiter.Middleware())
		limited.POST("/analyze", scoutHandler.Analyze)
		limited.POST("/search", scoutHandler.Search)
		limited.POST("/scout", scoutHandler.Scout)
		limited.POST("/scout/stream", scoutHandler.ScoutStream)
		limited.GET("/missions/similar", missionHandler.Similar)

		admin := apiV1.Group("/admin", adminHandler.RequirePasscode())
		admin.GET("/stats", adminHandler.Stats)
	}

	return router
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
