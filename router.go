package main

import (
	"net/http"

	"PPresence/service/dashboard"
	"PPresence/service/gate"

	"github.com/gin-gonic/gin"
)

func newRouter(srv *gate.Server) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/ws", srv.HandleWS)
	engine.POST("/internal/dashboard", dashboard.IngestHandler(srv))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": srv.Registry().Len(),
			"sessions":    srv.Sessions().Len(),
		})
	})
	return engine
}
