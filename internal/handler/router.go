package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes groups the handlers mounted by NewRouter.
type Routes struct {
	Health    *HealthHandler
	Placement *PlacementHandler
	Publish   *PublishHandler
}

// NewRouter builds the gin engine. Probes and /metrics are public; everything
// under /api/v1 goes through auth.
func NewRouter(routes Routes, auth gin.HandlerFunc, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)

	r.GET("/health/live", routes.Health.LivenessProbe)
	r.GET("/health/ready", routes.Health.ReadinessProbe)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if auth != nil {
		api.Use(auth)
	}

	p := routes.Placement
	api.GET("/current/:type", p.CurrentIssue)
	api.GET("/issues/:id", p.GetIssue)
	api.PATCH("/issues/:id", p.UpdateIssue)
	api.POST("/issues/:id/items", p.AddItem)
	api.POST("/issues/:id/reorder", p.ReorderItems)
	api.GET("/issues/:id/draft", p.Draft)
	api.DELETE("/items/:id", p.RemoveItem)
	api.POST("/items/:id/move", p.MoveItem)
	api.PATCH("/items/:id/fields", p.UpdateItemFields)
	api.GET("/videos/available", p.AvailableVideos)

	if pub := routes.Publish; pub != nil {
		api.GET("/issues/:id/preview", pub.Preview)
		api.POST("/issues/:id/publish", pub.Publish)
		api.POST("/issues/:id/sync", pub.SyncStatus)
	}

	return r
}
