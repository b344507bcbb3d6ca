package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/callrelay/config"
	"github.com/mossy-p/callrelay/internal/auth"
	"github.com/mossy-p/callrelay/internal/metrics"
	"github.com/mossy-p/callrelay/internal/middleware"
	"github.com/mossy-p/callrelay/internal/signaling"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config   *config.Config
	Hub      *signaling.Hub
	Auth     *auth.Authenticator
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	router.Use(OriginFilter(d.Config.AllowedOrigins))

	router.GET("/health", Health(d.Hub))

	ws := NewSignalingHandler(d.Hub, d.Auth, d.Config.WS, d.Metrics)
	router.GET("/ws", ws.Handle)

	api := router.Group("/api", middleware.JWTAuth(d.Auth))
	{
		api.POST("/rooms/:room/events",
			middleware.RequireRole(d.Config.API.BroadcastRoles...),
			BroadcastEvent(d.Hub))
	}

	if d.Config.Metrics.Enabled && d.Gatherer != nil {
		router.GET(d.Config.Metrics.Path, gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

func Health(hub *signaling.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"online":      hub.Online(),
			"activeCalls": hub.ActiveCalls(),
		})
	}
}
