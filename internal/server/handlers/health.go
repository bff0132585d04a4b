package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/metrics"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/server/router"
)

func init() {
	router.NewGroupRouter("").
		AddRoute(
			router.NewRoute("/healthz", http.MethodGet).
				Handle(healthz),
		).
		AddRoute(
			router.NewRoute("/metrics", http.MethodGet).
				Handle(promMetrics),
		)
}

func healthz(c *gin.Context) {
	conn := db.GetDB()
	if conn == nil {
		resp.Error(c, http.StatusServiceUnavailable, resp.ErrUnavailable)
		return
	}
	sqlDB, err := conn.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		resp.Error(c, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	resp.Success(c, gin.H{"status": "ok", "version": conf.Version})
}

func promMetrics(c *gin.Context) {
	m := metrics.Default()
	if m == nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	m.Handler().ServeHTTP(c.Writer, c.Request)
}
