package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
)

// Logger logs every request at debug level.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("%s %s %d %s %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
