package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/utils/xstrings"
)

// Cors reads the origin whitelist from the cors_allow_origins setting on
// every request:
//   - empty: no cross origin requests
//   - "*": any origin
//   - comma separated list: full origins or bare hosts
func Cors() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowCredentials = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", AnonymousHeader}
	config.AllowOriginFunc = func(origin string) bool {
		allowed, err := op.SettingGetString(model.SettingKeyCORSAllowOrigins)
		if err != nil {
			return false
		}
		return originAllowed(allowed, origin)
	}
	return cors.New(config)
}

func originAllowed(allowed, origin string) bool {
	allowed = strings.TrimSpace(allowed)
	origin = strings.TrimSpace(origin)
	if allowed == "" || origin == "" {
		return allowed == "*"
	}
	if allowed == "*" {
		return true
	}
	host := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		host = origin[idx+3:]
	}
	host = strings.TrimRight(host, "/")
	for _, item := range xstrings.SplitList(allowed, ",") {
		item = strings.TrimRight(item, "/")
		if item == origin || item == host {
			return true
		}
	}
	return false
}
