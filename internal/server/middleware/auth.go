package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/server/auth"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
)

const (
	identityKey      = "identity"
	AnonymousCookie  = "gm_session"
	AnonymousHeader  = "X-Anonymous-Id"
	anonymousMaxAgeS = 30 * 24 * 3600
)

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// Auth requires a valid user token.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
			return
		}
		claims, err := auth.VerifyJWTToken(token)
		if err != nil {
			resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
			return
		}
		c.Set(identityKey, model.Identity{UserID: claims.UserID, IsAdmin: claims.Admin})
		c.Next()
	}
}

// AdminAuth requires a valid token of an admin user.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		claims, err := auth.VerifyJWTToken(token)
		if token == "" || err != nil {
			resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
			return
		}
		if !claims.Admin {
			resp.Error(c, http.StatusForbidden, resp.ErrForbidden)
			return
		}
		c.Set(identityKey, model.Identity{UserID: claims.UserID, IsAdmin: true})
		c.Next()
	}
}

// Identity resolves the caller without requiring sign-in. A valid token wins.
// Otherwise the anonymous session id comes from the cookie or header, and a
// new one is issued as a cookie when neither is present.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearer(c); token != "" {
			claims, err := auth.VerifyJWTToken(token)
			if err != nil {
				resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
				return
			}
			c.Set(identityKey, model.Identity{UserID: claims.UserID, IsAdmin: claims.Admin})
			c.Next()
			return
		}

		id := c.GetHeader(AnonymousHeader)
		if !auth.ValidAnonymousID(id) {
			id, _ = c.Cookie(AnonymousCookie)
		}
		if !auth.ValidAnonymousID(id) {
			id = auth.NewAnonymousID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(AnonymousCookie, id, anonymousMaxAgeS, "/", "", c.Request.TLS != nil, true)
		}
		c.Set(identityKey, model.Identity{AnonymousID: id})
		c.Next()
	}
}

// GetIdentity returns the identity set by Auth, AdminAuth or Identity.
func GetIdentity(c *gin.Context) model.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}
	}
	who, _ := v.(model.Identity)
	return who
}
