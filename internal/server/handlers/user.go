package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/server/auth"
	"github.com/gloriamundo/gloriamundo/internal/server/middleware"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
	"github.com/gloriamundo/gloriamundo/internal/server/router"
)

func init() {
	router.NewGroupRouter("/api/v1/user").
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/register", http.MethodPost).
				Handle(register),
		).
		AddRoute(
			router.NewRoute("/login", http.MethodPost).
				Handle(login),
		)
	router.NewGroupRouter("/api/v1/user").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/status", http.MethodGet).
				Handle(status),
		).
		AddRoute(
			router.NewRoute("/change-password", http.MethodPost).
				Use(middleware.RequireJSON()).
				Handle(changePassword),
		)
}

func register(c *gin.Context) {
	var req model.UserRegister
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c, http.StatusBadRequest, err)
		return
	}
	u, err := op.UserCreate(c.Request.Context(), req.Username, req.Password, false)
	if errors.Is(err, op.ErrUsernameTaken) {
		resp.Error(c, http.StatusConflict, resp.ErrDuplicateResource)
		return
	}
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	issueToken(c, u, 0)
}

func login(c *gin.Context) {
	var req model.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	u, err := op.UserVerify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
		return
	}
	issueToken(c, u, req.Expire)
}

func issueToken(c *gin.Context, u *model.User, expire int) {
	token, expireAt, err := auth.GenerateJWTToken(u, expire)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
		return
	}
	resp.Success(c, model.UserLoginResponse{Token: token, ExpireAt: expireAt})
}

func status(c *gin.Context) {
	who := middleware.GetIdentity(c)
	u, err := op.UserGet(c.Request.Context(), who.UserID)
	if err != nil {
		resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
		return
	}
	resp.Success(c, u)
}

func changePassword(c *gin.Context) {
	var req model.UserChangePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	who := middleware.GetIdentity(c)
	if err := op.UserChangePassword(c.Request.Context(), who.UserID, req.OldPassword, req.NewPassword); err != nil {
		resp.Fail(c, http.StatusBadRequest, err)
		return
	}
	resp.Success(c, "password changed successfully")
}
