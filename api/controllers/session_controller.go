package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/api/models"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

type SessionController struct {
	app *models.App
}

func NewSessionController(app *models.App) *SessionController {
	return &SessionController{app: app}
}

// HandleState returns the full dashboard snapshot.
func (ctrl *SessionController) HandleState(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.app.Snapshot()))
}

// HandleOptions lists the selectable companies, EDI types and demo accounts.
func (ctrl *SessionController) HandleOptions(c *gin.Context) {
	docTypes := make([]gin.H, 0, len(types.DocTypes))
	for _, d := range types.DocTypes {
		docTypes = append(docTypes, gin.H{"value": d, "label": d.Label(), "locksDates": d == types.DocTypeInventory})
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"companies":       types.Companies,
		"docTypes":        docTypes,
		"demoCredentials": types.DemoCredentials,
		"allowedFiles":    []string{".xlsx", ".xls"},
	}))
}

func (ctrl *SessionController) HandleLogin(c *gin.Context) {
	var request types.Credentials
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	sess, err := ctrl.app.Session.Login(c.Request.Context(), request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(sess))
}

func (ctrl *SessionController) HandleLogout(c *gin.Context) {
	ctrl.app.Session.Logout()
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
