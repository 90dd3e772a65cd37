package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK successful envelope around data.
func OK(c *gin.Context, data any, message string) {
	JSON(c, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}
