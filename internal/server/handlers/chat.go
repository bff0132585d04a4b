package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/relay"
	"github.com/gloriamundo/gloriamundo/internal/server/middleware"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/server/router"
)

func init() {
	router.NewGroupRouter("").
		AddRoute(
			router.NewRoute("/chat", http.MethodPost).
				Use(middleware.Identity()).
				Use(middleware.ChatRateLimit()).
				Use(middleware.RequireJSON()).
				Handle(chat),
		)
	router.NewGroupRouter("/api/v1/chat").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/settings", http.MethodGet).
				Handle(getChatSettings),
		).
		AddRoute(
			router.NewRoute("/settings", http.MethodPost).
				Use(middleware.RequireJSON()).
				Handle(updateChatSettings),
		)
}

func chat(c *gin.Context) {
	r := relay.Default()
	if r == nil {
		resp.Error(c, http.StatusServiceUnavailable, resp.ErrUnavailable)
		return
	}
	r.Chat(c, middleware.GetIdentity(c))
}

func getChatSettings(c *gin.Context) {
	who := middleware.GetIdentity(c)
	s, err := op.ChatSettingsGet(c.Request.Context(), who.UserID)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, s)
}

func updateChatSettings(c *gin.Context) {
	var upd model.UserChatSettingsUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		resp.Fail(c, http.StatusBadRequest, err)
		return
	}
	who := middleware.GetIdentity(c)
	s, err := op.ChatSettingsUpdate(c.Request.Context(), who.UserID, upd)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, s)
}
