package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/session"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/workflow"
)

var errFileTooLarge = errors.New("file is too large")

// respondError maps a component error to a status code and body.
func respondError(c *gin.Context, err error) {
	var vErr *workflow.ValidationError
	var authErr *session.AuthError
	var connErr *session.ConnectionError
	switch {
	case errors.Is(err, workflow.ErrFileTypeRejected):
		c.JSON(http.StatusBadRequest, tool.FastReturnAlert(err.Error()))
	case errors.Is(err, errFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, tool.FastReturnError(err.Error()))
	case errors.Is(err, http.ErrMissingFile):
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing file"))
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, tool.FastReturnErrorWithData(workflow.RequiredFieldsMessage, map[string]any{"missing": vErr.Missing}))
	case errors.Is(err, workflow.ErrBusy):
		c.JSON(http.StatusConflict, tool.FastReturnError(err.Error()))
	case errors.Is(err, workflow.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, tool.FastReturnError(err.Error()))
	case errors.Is(err, workflow.ErrNoArtifact):
		c.JSON(http.StatusNotFound, tool.FastReturnError(err.Error()))
	case errors.Is(err, workflow.ErrUnknownCompany), errors.Is(err, workflow.ErrUnknownDocType),
		errors.Is(err, session.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, tool.FastReturnError(authErr.Detail))
	case errors.As(err, &connErr):
		c.JSON(http.StatusBadGateway, tool.FastReturnError(connErr.Error()))
	default:
		c.JSON(http.StatusBadGateway, tool.FastReturnError(err.Error()))
	}
}
