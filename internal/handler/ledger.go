package handler

import (
	"net/http"

	"labcaixa/internal/dto"
	"labcaixa/internal/middleware"
	"labcaixa/internal/service"

	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	ingest service.IngestService
}

func NewLedgerHandler(ingest service.IngestService) *LedgerHandler {
	return &LedgerHandler{ingest: ingest}
}

// Import godoc
// @Summary Importa lançamentos bancários manualmente (fallback do sync automático)
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ImportLedgerRequest true "Lote de lançamentos"
// @Success 200 {object} dto.ImportLedgerResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/ledger/import [post]
func (h *LedgerHandler) Import(c *gin.Context) {
	var req dto.ImportLedgerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.ingest.ImportLedger(c.Request.Context(), claims.UnitID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
