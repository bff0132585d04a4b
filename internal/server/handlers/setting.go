package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/server/middleware"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/server/router"
	"github.com/gloriamundo/gloriamundo/internal/task"
)

func init() {
	router.NewGroupRouter("/api/v1/setting").
		Use(middleware.AdminAuth()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listSetting),
		).
		AddRoute(
			router.NewRoute("/set", http.MethodPost).
				Use(middleware.RequireJSON()).
				Handle(setSetting),
		)
}

func listSetting(c *gin.Context) {
	settings, err := op.SettingList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, settings)
}

// setSetting stores one key and applies it to the running tasks, e.g. a new
// catalog_refresh_interval reschedules the catalog refresh.
func setSetting(c *gin.Context) {
	var s model.Setting
	if err := c.ShouldBindJSON(&s); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	if err := op.SettingSetString(c.Request.Context(), s.Key, s.Value); err != nil {
		resp.Fail(c, http.StatusBadRequest, err)
		return
	}
	task.SettingChanged(s)
	resp.Success(c, s)
}
