package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/server/middleware"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/server/router"
	"github.com/gloriamundo/gloriamundo/internal/task"
)

func init() {
	router.NewGroupRouter("/api/v1/model").
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listModel),
		).
		AddRoute(
			router.NewRoute("/last-sync", http.MethodGet).
				Handle(getLastSync),
		)
	router.NewGroupRouter("/api/v1/model").
		Use(middleware.AdminAuth()).
		AddRoute(
			router.NewRoute("/refresh", http.MethodPost).
				Handle(refreshModel),
		)
}

// listModel returns the active catalog; ?all=true includes retired models.
func listModel(c *gin.Context) {
	all, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
	models, err := op.CatalogList(c.Request.Context(), !all)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, models)
}

func refreshModel(c *gin.Context) {
	result, err := task.RefreshCatalog(c.Request.Context())
	if err != nil {
		resp.Fail(c, http.StatusBadGateway, err)
		return
	}
	resp.Success(c, result)
}

func getLastSync(c *gin.Context) {
	resp.Success(c, gin.H{"last_sync": op.CatalogLastSync()})
}
