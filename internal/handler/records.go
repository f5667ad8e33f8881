package handler

import (
	"net/http"
	"time"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/middleware"
	"labcaixa/internal/service"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	ingest    service.IngestService
	selection service.SelectionService
}

func NewRecordHandler(ingest service.IngestService, selection service.SelectionService) *RecordHandler {
	return &RecordHandler{ingest: ingest, selection: selection}
}

// Import godoc
// @Summary Importa registros de atendimento do LIS
// @Tags records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ImportRecordsRequest true "Lote de registros"
// @Success 200 {object} dto.ImportRecordsResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/records/import [post]
func (h *RecordHandler) Import(c *gin.Context) {
	var req dto.ImportRecordsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.ingest.ImportRecords(c.Request.Context(), claims.UnitID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eligible godoc
// @Summary Lista registros elegíveis para fechamento no canal informado
// @Tags records
// @Produce json
// @Security BearerAuth
// @Param channel query string true "Canal de fechamento (cash|pix|card)"
// @Param date query string false "Data do atendimento (YYYY-MM-DD)"
// @Success 200 {array} dto.EligibleRecordResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/records/eligible [get]
func (h *RecordHandler) Eligible(c *gin.Context) {
	channel := c.Query("channel")
	if channel == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetro channel é obrigatório"))
		return
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Data inválida, use YYYY-MM-DD"))
			return
		}
		date = &parsed
	}

	claims := middleware.GetClaims(c)
	resp, err := h.selection.ListEligible(c.Request.Context(), claims.UnitID, channel, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Totals godoc
// @Summary Calcula os totais da seleção atual (pré-visualização do fechamento)
// @Tags records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SelectionTotalsRequest true "Seleção atual"
// @Success 200 {object} dto.SelectionTotalsResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/records/totals [post]
func (h *RecordHandler) Totals(c *gin.Context) {
	var req dto.SelectionTotalsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.selection.ComputeTotals(c.Request.Context(), claims.UnitID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
