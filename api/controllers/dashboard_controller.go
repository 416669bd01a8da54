package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/api/models"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
	"github.com/moyoez/edi-client/workflow"
)

// MaxUploadBytes caps a spreadsheet posted to /file.
const MaxUploadBytes = 64 << 20

type DashboardController struct {
	app *models.App
}

func NewDashboardController(app *models.App) *DashboardController {
	return &DashboardController{app: app}
}

type selectPathRequest struct {
	Path string `json:"path"`
}

type paramsRequest struct {
	Company types.Company `json:"company"`
	DocType types.DocType `json:"docType"`
}

type datesRequest struct {
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// detach keeps request values but drops cancellation: the workflow outlives
// the HTTP caller and is bounded by the client timeout instead.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (ctrl *DashboardController) requireLogin(c *gin.Context) bool {
	if !ctrl.app.Session.Current().IsAuthenticated {
		respondError(c, workflow.ErrNotAuthenticated)
		return false
	}
	return true
}

// HandleSelectFile accepts a multipart "file" field or a JSON {"path"} body.
func (ctrl *DashboardController) HandleSelectFile(c *gin.Context) {
	if !ctrl.requireLogin(c) {
		return
	}
	var (
		selected types.SelectedFile
		err      error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		selected, err = ctrl.selectUploaded(c)
	} else {
		var request selectPathRequest
		if bindErr := c.ShouldBindJSON(&request); bindErr != nil || request.Path == "" {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing file or path"))
			return
		}
		selected, err = ctrl.app.Workflow.SelectPath(request.Path)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(selected))
}

func (ctrl *DashboardController) selectUploaded(c *gin.Context) (types.SelectedFile, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return types.SelectedFile{}, err
	}
	if !workflow.IsSpreadsheet(header.Filename) {
		return types.SelectedFile{}, workflow.ErrFileTypeRejected
	}
	src, err := header.Open()
	if err != nil {
		return types.SelectedFile{}, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close uploaded file: %v", err)
		}
	}()
	data, err := io.ReadAll(io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return types.SelectedFile{}, err
	}
	if len(data) > MaxUploadBytes {
		return types.SelectedFile{}, errFileTooLarge
	}
	return ctrl.app.Workflow.SelectFile(types.SelectedFile{Name: header.Filename, Size: int64(len(data)), Data: data})
}

func (ctrl *DashboardController) HandleSetParams(c *gin.Context) {
	if !ctrl.requireLogin(c) {
		return
	}
	var request paramsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if err := ctrl.app.Workflow.SetCompany(request.Company); err != nil {
		respondError(c, err)
		return
	}
	if err := ctrl.app.Workflow.SetDocType(request.DocType); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"params":      ctrl.app.Workflow.Params(),
		"datesLocked": ctrl.app.Workflow.Dates().Locked(),
	}))
}

// HandleSetDates applies the fields present in the body. While the range is
// locked the edits are ignored and reported as not applied.
func (ctrl *DashboardController) HandleSetDates(c *gin.Context) {
	if !ctrl.requireLogin(c) {
		return
	}
	var request datesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	applied := true
	if request.StartDate != nil {
		ok, err := ctrl.app.Workflow.SetStartDate(*request.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		applied = applied && ok
	}
	if request.EndDate != nil {
		ok, err := ctrl.app.Workflow.SetEndDate(*request.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		applied = applied && ok
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"applied": applied,
		"params":  ctrl.app.Workflow.Params(),
	}))
}

// HandleGenerate runs one submission and answers with the resulting state.
func (ctrl *DashboardController) HandleGenerate(c *gin.Context) {
	err := ctrl.app.Workflow.Generate(detach(c))
	if err != nil {
		state := ctrl.app.Workflow.State()
		if state.Phase == types.PhaseError {
			c.JSON(http.StatusBadGateway, tool.FastReturnErrorWithData(state.Message, map[string]any{"state": state}))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"state": ctrl.app.Workflow.State(),
		"modal": ctrl.app.Workflow.Modal(),
	}))
}

// HandleDownload saves the generated file, either the one in the success
// modal or ?filename= from the recent list.
func (ctrl *DashboardController) HandleDownload(c *gin.Context) {
	var (
		result *workflow.DownloadResult
		err    error
	)
	if name := c.Query("filename"); name != "" {
		result, err = ctrl.app.Workflow.DownloadArtifact(detach(c), name)
	} else {
		result, err = ctrl.app.Workflow.Download(detach(c))
	}
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(result))
	case errors.Is(err, workflow.ErrNoArtifact), errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrNotAuthenticated):
		respondError(c, err)
	default:
		c.JSON(http.StatusBadGateway, tool.FastReturnError(workflow.DownloadFailure(err)))
	}
}

func (ctrl *DashboardController) HandleCloseModal(c *gin.Context) {
	ctrl.app.Workflow.CloseModal()
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *DashboardController) HandleReset(c *gin.Context) {
	if err := ctrl.app.Workflow.Reset(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
