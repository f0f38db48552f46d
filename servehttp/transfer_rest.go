package servehttp

import (
	"claimflow/bizerror"
	"claimflow/domain/transfer"
	"claimflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterTransferHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/dossiers", middleWares...)

	handler := &transferHandler{
		validator: validator.New(),
	}

	g.POST(":dossierId/transfers", handler.handleInitiateTransfer)
	g.GET(":dossierId/transfer-eligibility", handler.handleCheckEligibility)
}

type transferHandler struct {
	validator *validator.Validate
}

type TransferCreation struct {
	TargetWorld string `json:"targetWorld" validate:"required"`
}

type TransferEligibilityQuery struct {
	TargetWorld string `form:"targetWorld" validate:"required"`
}

func (h *transferHandler) handleInitiateTransfer(c *gin.Context) {
	dossierId, ok := parseIdParam(c, "dossierId")
	if !ok {
		return
	}

	creation := TransferCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := transfer.InitiateTransferFunc(dossierId, creation.TargetWorld, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *transferHandler) handleCheckEligibility(c *gin.Context) {
	dossierId, ok := parseIdParam(c, "dossierId")
	if !ok {
		return
	}

	query := TransferEligibilityQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	if err := h.validator.Struct(query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	eligibility, err := transfer.CheckTransferEligibilityFunc(dossierId, query.TargetWorld, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, eligibility)
}
