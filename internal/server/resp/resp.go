package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseStruct is the envelope of every JSON API answer. /chat answers
// with SSE instead once its headers are out.
type ResponseStruct struct {
	Code    int    `json:"code" example:"200"`
	Message string `json:"message" example:"success"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ResponseStruct{Code: http.StatusOK, Message: "success", Data: data})
}

// Error aborts the chain with msg as the envelope message.
func Error(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, ResponseStruct{Code: code, Message: msg})
}

// Fail is Error with the message taken from err, for validation and
// business errors that are safe to show.
func Fail(c *gin.Context, code int, err error) {
	Error(c, code, err.Error())
}
