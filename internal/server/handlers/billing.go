package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/billing"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/server/middleware"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/server/router"
)

func init() {
	router.NewGroupRouter("/api/v1/billing").
		Use(middleware.AdminAuth()).
		AddRoute(
			router.NewRoute("/transaction", http.MethodPost).
				Use(middleware.RequireJSON()).
				Handle(completeTransaction),
		).
		AddRoute(
			router.NewRoute("/transaction/list", http.MethodGet).
				Handle(listTransaction),
		)
}

func completeTransaction(c *gin.Context) {
	var req model.TransactionCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err)
		return
	}
	txn, err := billing.Default().CompleteTransaction(c.Request.Context(), req)
	switch {
	case errors.Is(err, op.ErrTransactionExists):
		resp.Error(c, http.StatusConflict, resp.ErrDuplicateResource)
		return
	case err != nil:
		resp.Fail(c, http.StatusBadRequest, err)
		return
	}
	resp.Success(c, txn)
}

func listTransaction(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	list, err := op.TransactionList(c.Request.Context(), page, pageSize)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, list)
}
