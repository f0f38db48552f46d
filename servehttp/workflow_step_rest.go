package servehttp

import (
	"claimflow/bizerror"
	"claimflow/domain/engine"
	"claimflow/domain/rollback"
	"claimflow/misc"
	"claimflow/session"
	"net/http"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterWorkflowStepHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/dossiers", middleWares...)

	handler := &workflowStepHandler{
		validator: validator.New(),
	}

	g.POST(":dossierId/steps/:stepId/complete", handler.handleCompleteStep)
	g.PUT(":dossierId/steps/:stepId/form-data", handler.handleSaveFormData)
	g.GET(":dossierId/progress", handler.handleQueryProgress)
	g.GET(":dossierId/available-steps", handler.handleQueryAvailableSteps)

	g.POST(":dossierId/steps/:stepId/rollback", handler.handleRollbackStep)
	g.GET(":dossierId/steps/:stepId/rollback-eligibility", handler.handleRollbackEligibility)
}

type workflowStepHandler struct {
	validator *validator.Validate
}

type RollbackRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *workflowStepHandler) handleCompleteStep(c *gin.Context) {
	dossierId, stepId, ok := parseStepURI(c)
	if !ok {
		return
	}

	completion := engine.StepCompletion{}
	if isMultipart(c) {
		files, err := extractUploadedFiles(c, &completion.FormData, &completion.Notes, &completion.Decision)
		if err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		completion.Files = files
	} else if err := c.ShouldBindBodyWith(&completion, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := engine.CompleteWorkflowStepFunc(dossierId, stepId, &completion, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *workflowStepHandler) handleSaveFormData(c *gin.Context) {
	dossierId, stepId, ok := parseStepURI(c)
	if !ok {
		return
	}

	saving := engine.FormDataSaving{}
	if isMultipart(c) {
		var notes string
		var decision *bool
		files, err := extractUploadedFiles(c, &saving.FormData, &notes, &decision)
		if err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		saving.Files = files
	} else if err := c.ShouldBindBodyWith(&saving, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := engine.SaveWorkflowFormDataFunc(dossierId, stepId, &saving, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *workflowStepHandler) handleQueryProgress(c *gin.Context) {
	dossierId, ok := parseIdParam(c, "dossierId")
	if !ok {
		return
	}

	records, err := engine.GetDossierWorkflowStepsFunc(dossierId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *workflowStepHandler) handleQueryAvailableSteps(c *gin.Context) {
	dossierId, ok := parseIdParam(c, "dossierId")
	if !ok {
		return
	}

	steps, err := engine.GetAvailableStepsFunc(dossierId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (h *workflowStepHandler) handleRollbackStep(c *gin.Context) {
	dossierId, stepId, ok := parseStepURI(c)
	if !ok {
		return
	}

	request := RollbackRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(request); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := rollback.RollbackWorkflowStepFunc(dossierId, stepId, request.Reason, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *workflowStepHandler) handleRollbackEligibility(c *gin.Context) {
	dossierId, stepId, ok := parseStepURI(c)
	if !ok {
		return
	}

	check, err := rollback.CanRollbackStepFunc(dossierId, stepId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, check)
}

func parseIdParam(c *gin.Context, name string) (types.ID, bool) {
	id, err := types.ParseID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param(name) + "'"})
		return 0, false
	}
	return id, true
}

func parseStepURI(c *gin.Context) (types.ID, types.ID, bool) {
	dossierId, ok := parseIdParam(c, "dossierId")
	if !ok {
		return 0, 0, false
	}
	stepId, ok := parseIdParam(c, "stepId")
	if !ok {
		return 0, 0, false
	}
	return dossierId, stepId, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}
