package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/api/models"
	"github.com/moyoez/edi-client/tool"
)

type LivenessController struct {
	app *models.App
}

func NewLivenessController(app *models.App) *LivenessController {
	return &LivenessController{app: app}
}

func (ctrl *LivenessController) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.app.Monitor.Signal()))
}

// HandleCheckNow asks the monitor for an immediate probe.
func (ctrl *LivenessController) HandleCheckNow(c *gin.Context) {
	if !ctrl.app.Monitor.Running() {
		c.JSON(http.StatusConflict, tool.FastReturnError("Liveness monitor is not running"))
		return
	}
	if !ctrl.app.Monitor.CheckNow() {
		c.JSON(http.StatusTooManyRequests, tool.FastReturnError("Check requested too recently"))
		return
	}
	c.JSON(http.StatusAccepted, tool.FastReturnSuccess())
}
