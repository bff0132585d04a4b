package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/server/resp"
)

// RequireJSON rejects request bodies that are not declared as JSON.
// Body-less methods pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
			c.Next()
			return
		}
		if c.ContentType() != gin.MIMEJSON {
			resp.Error(c, http.StatusUnsupportedMediaType, resp.ErrInvalidJSON)
			return
		}
		c.Next()
	}
}
