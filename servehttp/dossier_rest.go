package servehttp

import (
	"claimflow/bizerror"
	"claimflow/domain/dossiers"
	"claimflow/domain/worlds"
	"claimflow/indices"
	"claimflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterDossierHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/dossiers", middleWares...)

	handler := &dossierHandler{
		validator: validator.New(),
	}

	g.POST("", handler.handleCreateDossier)
	g.GET("", handler.handleQueryDossiers)
	g.GET(":dossierId", handler.handleDetailDossier)
	g.GET(":dossierId/history", handler.handleQueryHistory)

	r.GET("/v1/worlds", append(middleWares, handler.handleQueryWorlds)...)
	r.GET("/v1/dossier-search", append(middleWares, handler.handleSearchDossiers)...)
}

type dossierHandler struct {
	validator *validator.Validate
}

type DossierSearchQuery struct {
	Query string `form:"q" validate:"required"`
}

func (h *dossierHandler) handleCreateDossier(c *gin.Context) {
	creation := dossiers.DossierCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := dossiers.CreateDossierFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *dossierHandler) handleQueryDossiers(c *gin.Context) {
	query := dossiers.DossierQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := dossiers.QueryDossiersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *dossierHandler) handleDetailDossier(c *gin.Context) {
	dossierId, ok := parseIdParam(c, "dossierId")
	if !ok {
		return
	}

	record, err := dossiers.DetailDossierFunc(dossierId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *dossierHandler) handleQueryHistory(c *gin.Context) {
	dossierId, ok := parseIdParam(c, "dossierId")
	if !ok {
		return
	}

	records, err := dossiers.QueryHistoryFunc(dossierId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *dossierHandler) handleQueryWorlds(c *gin.Context) {
	records, err := worlds.QueryWorldsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *dossierHandler) handleSearchDossiers(c *gin.Context) {
	query := DossierSearchQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	if err := h.validator.Struct(query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	sources, err := indices.SearchDossiersFunc(query.Query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, sources)
}
