package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/tool"
)

func OnlyAllowLocal(c *gin.Context) {
	if c.ClientIP() == "127.0.0.1" || c.ClientIP() == "::1" {
		c.Next()
		return
	}
	tool.DefaultLogger.Warnf("Rejected non-local request from %s to %s", c.ClientIP(), c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusForbidden, tool.FastReturnError("Forbidden"))
}
