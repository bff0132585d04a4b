package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/server/middleware"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/server/router"
)

func init() {
	router.NewGroupRouter("/api/v1/conversation").
		Use(middleware.Identity()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listConversation),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodGet).
				Handle(getConversation),
		).
		AddRoute(
			router.NewRoute("/delete", http.MethodPost).
				Use(middleware.RequireJSON()).
				Handle(deleteConversation),
		)
}

func listConversation(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := op.ConversationList(c.Request.Context(), middleware.GetIdentity(c), page, pageSize)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, list)
}

func getConversation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	detail, err := op.ConversationGet(c.Request.Context(), middleware.GetIdentity(c), uint(id))
	if errors.Is(err, op.ErrConversationNotFound) {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, detail)
}

func deleteConversation(c *gin.Context) {
	var req struct {
		ID uint `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err)
		return
	}
	err := op.ConversationDelete(c.Request.Context(), middleware.GetIdentity(c), req.ID)
	if errors.Is(err, op.ErrConversationNotFound) {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, nil)
}
