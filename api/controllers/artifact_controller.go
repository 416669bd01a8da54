package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/api/models"
	"github.com/moyoez/edi-client/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

type ArtifactController struct {
	app *models.App
}

func NewArtifactController(app *models.App) *ArtifactController {
	return &ArtifactController{app: app}
}

// HandleRecent lists EDI files generated during the last hour.
func (ctrl *ArtifactController) HandleRecent(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.app.Workflow.Recent()))
}

// HandleQRCode returns a PNG of the remote download URL.
// GET ?filename=<name>&size=200x200; filename defaults to the success modal.
func (ctrl *ArtifactController) HandleQRCode(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		filename = ctrl.app.Workflow.Modal().Filename
	}
	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	png, err := ctrl.app.Workflow.QRCode(filename, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// HandleUserLogs proxies the signed-in user's activity log.
func (ctrl *ArtifactController) HandleUserLogs(c *gin.Context) {
	logs, err := ctrl.app.Workflow.UserLogs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(logs))
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
