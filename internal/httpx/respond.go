// Package httpx holds response helpers shared by the gin handlers.
package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/apperr"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
)

// Error writes err as {"message": ...} with the status of its kind. Server
// side failures are logged with the route; their cause is never sent.
func Error(c *gin.Context, err error) {
	status, msg := apperr.HTTPStatus(err)
	if status >= 500 {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// Message writes {"message": msg} with status.
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}
